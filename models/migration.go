package models

import (
	"log"

	"bitbucket.org/mmdatafocus/production_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Product{}, &ProductFloorStep{},
		&ProductionOrder{}, &Article{}, &FloorQuantity{},
		&TransferEvent{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
