// Package subscription owns the plan policy and the billing side of the
// service: hosted checkout creation and reconciliation of payment gateway
// webhooks into per-owner subscription records.
//
// The plan table is static. QuotaFor maps a plan name to the maximum number
// of ideas its owner may hold, with Unlimited (-1) meaning no cap and any
// unknown name falling back to the free quota.
//
// Gateways (Stripe, Paddle) verify webhook signatures and translate the
// provider payload into one of the Event variants: CheckoutCompleted,
// SubscriptionChanged or Unhandled. Service.HandleWebhook applies them to a
// Store. Both writes are idempotent, so redelivered events are harmless; an
// optional EventLog additionally short-circuits events that were already
// applied.
package subscription
