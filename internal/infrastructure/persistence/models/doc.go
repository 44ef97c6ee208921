// Package models contains the gorm persistence models. Each model converts
// to and from its domain aggregate with ToDomain and FromDomain so the
// domain packages stay free of gorm tags.
package models
