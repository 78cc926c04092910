package models

import (
	"gorm.io/gorm"
)

// MigrateTable creates the tables this module owns. product_variants and
// products belong to the catalog and are never migrated from here.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&AreaBasketVariant{},
		&SyncRun{},
	)
}
