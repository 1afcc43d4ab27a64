package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ids are assigned client-side on create so inserts behave identically on
// Postgres and the sqlite test harness, which has no gen_random_uuid().

func ensureID(id *uuid.UUID) error {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	return nil
}

func (u *User) BeforeCreate(*gorm.DB) error            { return ensureID(&u.ID) }
func (r *AdminRole) BeforeCreate(*gorm.DB) error       { return ensureID(&r.ID) }
func (a *AdminUser) BeforeCreate(*gorm.DB) error       { return ensureID(&a.ID) }
func (c *ProductCategory) BeforeCreate(*gorm.DB) error { return ensureID(&c.ID) }
func (d *Discount) BeforeCreate(*gorm.DB) error        { return ensureID(&d.ID) }
func (p *Product) BeforeCreate(*gorm.DB) error         { return ensureID(&p.ID) }
func (s *ShoppingSession) BeforeCreate(*gorm.DB) error { return ensureID(&s.ID) }
func (c *CartItem) BeforeCreate(*gorm.DB) error        { return ensureID(&c.ID) }
func (e *OutboxEvent) BeforeCreate(*gorm.DB) error     { return ensureID(&e.ID) }
