// Package erp contains the domain model for the external ERP system:
// authentication tokens, the raw wire representation of the ERP product
// catalog, the normalized product model consumed by the catalog sync, and
// the order payload submitted back to the ERP.
//
// The package defines ports only. HTTP transport, token persistence and
// payload construction live in the infrastructure and application layers.
package erp
