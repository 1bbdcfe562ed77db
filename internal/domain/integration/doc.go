// Package integration contains the Integration bounded context.
// This context describes the two external systems revsync talks to: the
// marketplace that owns order data and the remote pivot table that receives
// per-SKU daily revenue.
//
// Key concepts:
//   - OrderSource: Port interface for searching and reading marketplace orders (Rakuten RMS)
//   - PlatformOrder / LineItem: Value objects representing orders pulled from the marketplace
//   - SkuAccumulator: Pure fold of line items into per-SKU daily aggregates
//   - PivotTable: Port interface for the SKU x day-of-month table (Lark Bitable)
//   - SyncRun: Entity recording one execution of the daily sync
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
