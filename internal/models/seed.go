package models

import "time"

func seedTime(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

var seedItems = []DashboardItem{
	{ID: "1", Source: "GitHub", Product: "Argo Smart Routing", Sentiment: SentimentNegative, Urgency: UrgencyCritical, Timestamp: seedTime("2025-11-18T14:30:00"), Message: "Argo Smart Routing went down during the outage. Smart routing updates and analytics were offline. This caused major traffic routing issues.", Theme: "outage_impact", Region: "US-East"},
	{ID: "2", Source: "Discord", Product: "Argo Smart Routing", Sentiment: SentimentNegative, Urgency: UrgencyHigh, Timestamp: seedTime("2025-11-18T14:45:00"), Message: "ASR analytics are broken post-outage. Performance metrics showing incorrect data for the last 2 hours.", Theme: "data_corruption", Region: "EU"},
	{ID: "3", Source: "Support Tickets", Product: "Argo Smart Routing", Sentiment: SentimentNegative, Urgency: UrgencyCritical, Timestamp: seedTime("2025-11-18T15:00:00"), Message: "Multiple customers reporting Argo Smart Routing failures. Real-time routing decisions unavailable. Site performance degraded 35-50%.", Theme: "performance_impact", Region: "Global"},
	{ID: "4", Source: "Twitter/X", Product: "Argo Smart Routing", Sentiment: SentimentNegative, Urgency: UrgencyHigh, Timestamp: seedTime("2025-11-18T15:15:00"), Message: "Why is Argo Smart Routing not helping? My site is still slow even with it enabled. The outage broke something.", Theme: "feature_broken", Region: "APAC"},
	{ID: "5", Source: "Community Forum", Product: "Argo Smart Routing", Sentiment: SentimentNeutral, Urgency: UrgencyMedium, Timestamp: seedTime("2025-11-18T16:00:00"), Message: "Is anyone else experiencing issues with Argo Smart Routing after the November 18 incident?", Theme: "measurement_issue", Region: "US-West"},
	{ID: "6", Source: "Email", Product: "Argo Smart Routing", Sentiment: SentimentNegative, Urgency: UrgencyCritical, Timestamp: seedTime("2025-11-18T16:30:00"), Message: "Customer complaint: Argo Smart Routing failed to route around congestion during outage. Expected intelligent routing, got nothing.", Theme: "core_function_failed", Region: "Global"},
	{ID: "7", Source: "GitHub", Product: "Workers", Sentiment: SentimentNegative, Urgency: UrgencyHigh, Timestamp: seedTime("2025-11-18T14:20:00"), Message: "Workers deployments failing. Build configuration system issue spreading to dependent services.", Theme: "outage_impact", Region: "Global"},
	{ID: "8", Source: "Support Tickets", Product: "Dashboard", Sentiment: SentimentNegative, Urgency: UrgencyHigh, Timestamp: seedTime("2025-11-18T14:50:00"), Message: "Dashboard API endpoints returning 503 errors. Control plane offline. Unable to monitor infrastructure.", Theme: "outage_impact", Region: "Global"},
}

// SeedItems returns a fresh copy of the demo fixture shown by the dashboard
// when it reads from the seed source.
func SeedItems() []DashboardItem {
	out := make([]DashboardItem, len(seedItems))
	copy(out, seedItems)
	return out
}
