// Package integration contains the marketplace Integration bounded context.
// It models merchant connections to external storefront platforms and the
// synchronization of their catalogs and orders into the marketplace.
//
// Key concepts:
//   - Connection: a merchant's authorized link to one Shopify store or WooCommerce site
//   - PlatformClient: port for talking to a storefront platform (adapters live in infrastructure)
//   - CatalogProduct: local catalog entry linked to a platform product by its native ID
//   - SyncStatusRecord: per-connection sync lifecycle, the only gate for concurrent runs
//   - WebhookEvent: an inbound platform notification awaiting verification and dispatch
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
