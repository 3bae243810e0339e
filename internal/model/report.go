// Package model contains the struct definitions shared across packages.
package model

import (
	"time"
)

// Severity is the hazard level assigned by the reporting user. It is an open
// string enum: the constants below are what the client offers today, but the
// repository accepts any non-empty value so new levels can be added without a
// schema change.
type Severity string

const (
	SeveritySafe      Severity = "Safe"
	SeverityModerate  Severity = "Moderate"
	SeverityHighWaves Severity = "High Waves"
)

// AnalysisResult is the payload returned by the external analysis service. The
// provider evolves its output shape, so the result stays a loose map and only
// the fields actually displayed get typed accessors.
type AnalysisResult map[string]any

// DangerZone returns the AI-derived zone classification, or "" when absent.
func (a AnalysisResult) DangerZone() string {
	return a.stringField("danger_zone")
}

// Description returns the AI-generated caption, or "" when absent.
func (a AnalysisResult) Description() string {
	return a.stringField("description")
}

func (a AnalysisResult) stringField(key string) string {
	if a == nil {
		return ""
	}
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Author is the denormalized owner reference attached to every report read.
// Name is always populated by the repository; callers never see a bare id.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Report is a user-submitted hazard observation. MediaURL is set exactly once
// at creation; AIAnalysis is best-effort and nil when the analysis service was
// unavailable at submission time.
type Report struct {
	ID          string         `json:"id"`
	Author      Author         `json:"author"`
	Description string         `json:"description"`
	Severity    Severity       `json:"severity"`
	Location    string         `json:"location"`
	Lat         float64        `json:"lat"`
	Lon         float64        `json:"lon"`
	MediaURL    string         `json:"mediaUrl"`
	AIAnalysis  AnalysisResult `json:"aiAnalysis,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// User is a registered reporter. Credential material lives outside this
// service; identity arrives as a bearer token resolved by the auth middleware.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
