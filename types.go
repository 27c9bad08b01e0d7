package main

import "motoshop/internal/models"

// Type aliases so handler code can use the unqualified names while the
// definitions live in internal/models.

type APIResponse = models.APIResponse
type Meta = models.Meta
type Service = models.Service
type Part = models.Part
type StockMovement = models.StockMovement
type Order = models.Order
type OrderLine = models.OrderLine
type User = models.User
type AuditEntry = models.AuditEntry
