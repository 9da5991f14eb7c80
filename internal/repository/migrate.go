package repository

import "gorm.io/gorm"

// Entities lists every table this package owns, in dependency order.
func Entities() []any {
	return []any{
		&PurchaseEntity{},
		&TableEntity{},
		&ReservationEntity{},
		&VendorSaleEntity{},
		&VendorEntity{},
	}
}

// AutoMigrate creates the schema from the entities. Production databases are
// migrated with goose; this is used for sqlite in tests and local runs.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Entities()...)
}
