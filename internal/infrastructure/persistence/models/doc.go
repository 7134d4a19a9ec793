// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities are free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. ToDomain/FromDomain convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: BaseModel and jsonb column helpers
// - connection.go: merchant platform connections with sealed credentials
// - sync_status.go: per-connection sync lifecycle (the run gate)
// - catalog_product.go: local catalog entries linked to platform products
// - platform_order.go: imported order ledger
package models
