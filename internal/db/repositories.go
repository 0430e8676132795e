package db

import "gorm.io/gorm"

type Repositories struct {
	Users         *UserRepository
	Passcodes     *PasscodeRepository
	Catalog       *CatalogRepository
	Applications  *ApplicationRepository
	Enrollments   *EnrollmentRepository
	Certificates  *CertificateRepository
	Contacts      *ContactRepository
	PaymentEvents *PaymentEventRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(database),
		Passcodes:     NewPasscodeRepository(database),
		Catalog:       NewCatalogRepository(database),
		Applications:  NewApplicationRepository(database),
		Enrollments:   NewEnrollmentRepository(database),
		Certificates:  NewCertificateRepository(database),
		Contacts:      NewContactRepository(database),
		PaymentEvents: NewPaymentEventRepository(database),
	}
}
