package models

import "time"

// Sentiment values.
const (
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentPositive = "positive"
)

// Urgency values.
const (
	UrgencyCritical = "critical"
	UrgencyHigh     = "high"
	UrgencyMedium   = "medium"
	UrgencyLow      = "low"
)

// Unclassified is the aggregation bucket for items that carry no value for
// a classification dimension.
const Unclassified = "unclassified"

// Sentiments lists the known sentiment values in display order.
var Sentiments = []string{SentimentNegative, SentimentNeutral, SentimentPositive}

// Urgencies lists the known urgency values in display order.
var Urgencies = []string{UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow}

// Item is what the dashboard lists and aggregates.
type Item interface {
	GetProduct() string
	GetSource() string
	GetSentiment() string
	GetUrgency() string
	GetTheme() string
}

var (
	_ Item = FeedbackRecord{}
	_ Item = DashboardItem{}
)

// DashboardItem is a feedback item with externally supplied classification.
type DashboardItem struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	Product   string    `json:"product"`
	Summary   string    `json:"summary,omitempty"`
	Sentiment string    `json:"sentiment"`
	Urgency   string    `json:"urgency"`
	Theme     string    `json:"theme"`
	Region    string    `json:"region"`
	Timestamp time.Time `json:"timestamp"`
}

func (d DashboardItem) GetProduct() string   { return d.Product }
func (d DashboardItem) GetSource() string    { return d.Source }
func (d DashboardItem) GetSentiment() string { return d.Sentiment }
func (d DashboardItem) GetUrgency() string   { return d.Urgency }
func (d DashboardItem) GetTheme() string     { return d.Theme }
