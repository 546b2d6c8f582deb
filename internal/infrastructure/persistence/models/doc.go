// Package models contains the GORM persistence models that map domain
// aggregates and entities to database tables.
//
// Every model embeds BaseModel or AggregateModel (base.go) and provides a
// ToDomain / FromDomain pair so that repositories never hand GORM structs to
// the rest of the application. Value objects stored as jsonb (pattern
// keywords, engine policies, audit payloads) are kept as string columns and
// marshalled at the boundary; malformed stored JSON is logged and replaced
// with a sane default instead of failing the read.
//
// Files:
//   - base.go: BaseModel and AggregateModel embeds
//   - pattern.go: PatternModel, EngineConfigModel, ConfigAuditLogModel
//   - conversation.go: InboundMessageModel, SuggestionModel, ShadowLogEntryModel
//   - identity.go: OperatorModel
//   - outbox.go: OutboxEntryModel for the transactional outbox
package models
