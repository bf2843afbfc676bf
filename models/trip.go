package models

import "time"

// Trip is one completed ride as stored in the trips table. The table is
// loaded out of band; this service only reads it.
type Trip struct {
	PickupAt    time.Time `gorm:"column:tpep_pickup_datetime" json:"pickup_at"`
	DropoffAt   time.Time `gorm:"column:tpep_dropoff_datetime" json:"dropoff_at"`
	Distance    float64   `gorm:"column:trip_distance" json:"trip_distance"`
	FareAmount  float64   `gorm:"column:fare_amount" json:"fare_amount"`
	TipAmount   float64   `gorm:"column:tip_amount" json:"tip_amount"`
	TotalAmount float64   `gorm:"column:total_amount" json:"total_amount"`
	PickupZone  int       `gorm:"column:PULocationID" json:"pickup_zone"`
	DropoffZone int       `gorm:"column:DOLocationID" json:"dropoff_zone"`
}

func (Trip) TableName() string { return "trips" }

// Duration is the elapsed time between pickup and dropoff. It is negative
// for records whose dropoff precedes the pickup.
func (t Trip) Duration() time.Duration {
	return t.DropoffAt.Sub(t.PickupAt)
}
