package seeders

import (
	"log"
	"time"

	"studiopulse_go/database"
	"studiopulse_go/models"
	"studiopulse_go/utils"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedOrganizations()
	SeedBranches()
	SeedUsers()
	SeedServices()
	SeedPlans()
	SeedProfessionals()
	SeedStaffSchedules()

	log.Println("Database seeding completed successfully!")
}

// SeedOrganizations seeds the demo tenant
func SeedOrganizations() {
	var count int64
	database.DB.Model(&models.Organization{}).Count(&count)
	if count > 0 {
		log.Println("Organizations already seeded, skipping...")
		return
	}

	pinHash, _ := utils.HashPin("1234")
	org := models.Organization{
		BaseModel:   models.BaseModel{ID: 1},
		Name:        "Estudio Aurora",
		Industry:    "fitness",
		SecurityPin: pinHash,
		Active:      true,
	}
	if err := database.DB.Create(&org).Error; err != nil {
		log.Printf("Error seeding organization: %v", err)
	}

	log.Println("Organizations seeded successfully")
}

// SeedBranches seeds the branches table
func SeedBranches() {
	var count int64
	database.DB.Model(&models.Branch{}).Count(&count)
	if count > 0 {
		log.Println("Branches already seeded, skipping...")
		return
	}

	branches := []models.Branch{
		{
			BaseModel:      models.BaseModel{ID: 1},
			OrganizationID: 1,
			Name:           "Sede Centro",
			Address:        "Av. Francisco de Miranda, Caracas",
			Timezone:       "America/Caracas",
			Active:         true,
		},
		{
			BaseModel:      models.BaseModel{ID: 2},
			OrganizationID: 1,
			Name:           "Sede Este",
			Address:        "C.C. Líder, Caracas",
			Timezone:       "America/Caracas",
			Active:         true,
		},
	}

	for _, branch := range branches {
		if err := database.DB.Create(&branch).Error; err != nil {
			log.Printf("Error seeding branch %s: %v", branch.Name, err)
		}
	}

	log.Println("Branches seeded successfully")
}

// SeedUsers seeds the users table
func SeedUsers() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already seeded, skipping...")
		return
	}

	hashedPassword, _ := utils.HashPassword("password123")

	users := []models.User{
		{
			BaseModel:      models.BaseModel{ID: 1},
			Username:       "admin",
			Password:       hashedPassword,
			Email:          "admin@studiopulse.app",
			FullName:       "Administrador",
			Role:           "super_admin",
			OrganizationID: 1,
			BranchID:       1,
			Status:         "active",
		},
		{
			BaseModel:      models.BaseModel{ID: 2},
			Username:       "owner",
			Password:       hashedPassword,
			Email:          "owner@estudioaurora.com",
			FullName:       "María Fernández",
			Role:           "owner",
			OrganizationID: 1,
			BranchID:       1,
			Status:         "active",
		},
		{
			BaseModel:            models.BaseModel{ID: 3},
			Username:             "carla",
			Password:             hashedPassword,
			Email:                "carla@estudioaurora.com",
			FullName:             "Carla Pérez",
			Role:                 "staff",
			OrganizationID:       1,
			BranchID:             1,
			Status:               "active",
			BaseSalary:           300,
			CommissionPercentage: 20,
		},
	}

	for _, user := range users {
		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("Error seeding user %s: %v", user.Username, err)
		}
	}

	log.Println("Users seeded successfully")
}

// SeedServices seeds the bookable class types
func SeedServices() {
	var count int64
	database.DB.Model(&models.Service{}).Count(&count)
	if count > 0 {
		log.Println("Services already seeded, skipping...")
		return
	}

	services := []models.Service{
		{BaseModel: models.BaseModel{ID: 1}, OrganizationID: 1, Name: "Yoga", Price: 10, Active: true},
		{BaseModel: models.BaseModel{ID: 2}, OrganizationID: 1, Name: "Pilates", Price: 12, Active: true},
		{BaseModel: models.BaseModel{ID: 3}, OrganizationID: 1, Name: "Danza", Price: 8, Active: true},
	}

	for _, service := range services {
		if err := database.DB.Create(&service).Error; err != nil {
			log.Printf("Error seeding service %s: %v", service.Name, err)
		}
	}

	log.Println("Services seeded successfully")
}

// SeedPlans seeds membership plans and their service access
func SeedPlans() {
	var count int64
	database.DB.Model(&models.Plan{}).Count(&count)
	if count > 0 {
		log.Println("Plans already seeded, skipping...")
		return
	}

	var yoga, pilates, danza models.Service
	database.DB.First(&yoga, 1)
	database.DB.First(&pilates, 2)
	database.DB.First(&danza, 3)

	plans := []models.Plan{
		{
			BaseModel:      models.BaseModel{ID: 1},
			OrganizationID: 1,
			Name:           "Mensual Yoga",
			DurationDays:   30,
			Price:          60,
			Active:         true,
			Services:       []models.Service{yoga},
		},
		{
			BaseModel:      models.BaseModel{ID: 2},
			OrganizationID: 1,
			Name:           "Mensual Full",
			DurationDays:   30,
			Price:          90,
			Active:         true,
			Services:       []models.Service{yoga, pilates, danza},
		},
	}

	for _, plan := range plans {
		if err := database.DB.Create(&plan).Error; err != nil {
			log.Printf("Error seeding plan %s: %v", plan.Name, err)
		}
	}

	log.Println("Plans seeded successfully")
}

// SeedProfessionals seeds external teachers
func SeedProfessionals() {
	var count int64
	database.DB.Model(&models.Professional{}).Count(&count)
	if count > 0 {
		log.Println("Professionals already seeded, skipping...")
		return
	}

	professionals := []models.Professional{
		{
			BaseModel:            models.BaseModel{ID: 1},
			OrganizationID:       1,
			BranchID:             1,
			FullName:             "José Ramírez",
			Phone:                "0414-5551234",
			BaseSalary:           0,
			CommissionPercentage: 40,
			Active:               true,
		},
	}

	for _, professional := range professionals {
		if err := database.DB.Create(&professional).Error; err != nil {
			log.Printf("Error seeding professional %s: %v", professional.FullName, err)
		}
	}

	log.Println("Professionals seeded successfully")
}

// SeedStaffSchedules seeds weekly availability for the demo staff teacher
func SeedStaffSchedules() {
	var count int64
	database.DB.Model(&models.StaffSchedule{}).Count(&count)
	if count > 0 {
		log.Println("Staff schedules already seeded, skipping...")
		return
	}

	carlaID := uint(3)
	schedules := []models.StaffSchedule{}
	// Monday through Friday, 08:00-17:00
	for weekday := int(time.Monday); weekday <= int(time.Friday); weekday++ {
		schedules = append(schedules, models.StaffSchedule{
			ProfileID: &carlaID,
			BranchID:  1,
			Weekday:   weekday,
			StartTime: "08:00",
			EndTime:   "17:00",
		})
	}

	for _, schedule := range schedules {
		if err := database.DB.Create(&schedule).Error; err != nil {
			log.Printf("Error seeding staff schedule: %v", err)
		}
	}

	log.Println("Staff schedules seeded successfully")
}
