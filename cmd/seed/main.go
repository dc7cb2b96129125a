package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"medintake/internal/config"
	"medintake/internal/crypto"
	"medintake/internal/db"
	"medintake/internal/model"
	"medintake/internal/repository"
)

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Patient{},
		&model.Insurance{},
		&model.Visit{},
		&model.Session{},
		&model.AuditLog{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	users := repository.NewUserRepository(gormDB)
	patients := repository.NewPatientRepository(gormDB)
	insurance := repository.NewInsuranceRepository(gormDB)
	cipher := crypto.NewCipher(cfg.EncryptionKey)

	seedStaff(ctx, users)
	seedDemoPatient(ctx, users, patients, insurance, cipher)

	log.Println("Seed complete")
}

func seedStaff(ctx context.Context, users repository.UserRepository) {
	if _, err := users.FindByUsername(ctx, "staff"); err == nil {
		log.Println("Staff user already exists, skipping")
		return
	} else if err != gorm.ErrRecordNotFound {
		log.Fatalf("Failed to check staff user: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("staff123"), 10)
	if err != nil {
		log.Fatalf("Failed to hash staff password: %v", err)
	}

	staff := &model.User{
		Username:     "staff",
		Email:        "staff@clinic.example",
		PasswordHash: string(hashed),
		Role:         model.RoleStaff,
		IsActive:     true,
	}
	if err := users.Create(ctx, staff); err != nil {
		log.Fatalf("Failed to create staff user: %v", err)
	}
	log.Println("Created staff user (username: staff)")
}

func seedDemoPatient(
	ctx context.Context,
	users repository.UserRepository,
	patients repository.PatientRepository,
	insuranceRepo repository.InsuranceRepository,
	cipher *crypto.Cipher,
) {
	if _, err := users.FindByUsername(ctx, "demo"); err == nil {
		log.Println("Demo patient already exists, skipping")
		return
	} else if err != gorm.ErrRecordNotFound {
		log.Fatalf("Failed to check demo patient: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("demo123"), 10)
	if err != nil {
		log.Fatalf("Failed to hash demo password: %v", err)
	}

	user := &model.User{
		Username:     "demo",
		Email:        "demo@clinic.example",
		PasswordHash: string(hashed),
		Role:         model.RolePatient,
		IsActive:     true,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}

	patient := &model.Patient{
		UserID:      user.ID,
		FullName:    "Demo Patient",
		DateOfBirth: time.Date(1985, 3, 22, 0, 0, 0, 0, time.UTC),
		Phone:       "555-0100",
		Address:     "1 Clinic Way",
	}
	if err := patients.Create(ctx, patient); err != nil {
		log.Fatalf("Failed to create demo patient: %v", err)
	}

	encryptedID, err := cipher.Encrypt("DEMO-POL-001")
	if err != nil {
		log.Fatalf("Failed to encrypt insurance id: %v", err)
	}
	if err := insuranceRepo.Save(ctx, &model.Insurance{
		PatientID:            patient.ID,
		InsuranceName:        "Demo Health",
		EncryptedInsuranceID: encryptedID,
	}); err != nil {
		log.Fatalf("Failed to create demo insurance: %v", err)
	}

	log.Println("Created demo patient (username: demo)")
}
