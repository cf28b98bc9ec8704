// Package engagement defines the lead scoring domain: rules, profiles,
// activities, engagement tiers, and the throttle guard.
package engagement

// Trigger vocabulary consumed from the site. Callers may send triggers outside
// this set; unmatched triggers are a no-op.
const (
	TriggerPageView          = "page_view"
	TriggerQuickScanStart    = "quick_scan_start"
	TriggerQuickScanProgress = "quick_scan_progress"
	TriggerQuickScanComplete = "quick_scan_complete"
	TriggerEmailCapture      = "email_capture"
	TriggerFileDownload      = "file_download"
	TriggerFormSubmit        = "form_submit"
	TriggerContactPageView   = "contact_page_view"
	TriggerServicesPageView  = "services_page_view"
	TriggerReturnVisit       = "return_visit"
	TriggerTimeOnSite        = "time_on_site"
	TriggerHighEngagement    = "high_engagement"
)

// ScoringRule maps a site trigger to a point delta plus throttle policy.
// Rules are immutable once registered except for the IsActive toggle.
type ScoringRule struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Trigger         string `json:"trigger"`
	Points          int    `json:"points"`
	MaxOccurrences  int    `json:"maxOccurrences,omitempty"`  // 0 = uncapped
	CooldownMinutes int    `json:"cooldownMinutes,omitempty"` // 0 = no cooldown
	IsActive        bool   `json:"isActive"`
}

// DefaultRules returns the seeded scoring catalog covering the full trigger
// vocabulary. The QuickScan rules are load-bearing for the funnel
// (start + 5x progress + complete = 45).
func DefaultRules() []*ScoringRule {
	return []*ScoringRule{
		{ID: "page-view", Name: "Page view", Trigger: TriggerPageView, Points: 1, IsActive: true},
		{ID: "return-visit", Name: "Return visit", Trigger: TriggerReturnVisit, Points: 5, CooldownMinutes: 720, IsActive: true},
		{ID: "time-on-site", Name: "Time on site", Trigger: TriggerTimeOnSite, Points: 3, CooldownMinutes: 30, IsActive: true},
		{ID: "quickscan-start", Name: "QuickScan started", Trigger: TriggerQuickScanStart, Points: 10, MaxOccurrences: 1, IsActive: true},
		{ID: "quickscan-progress", Name: "QuickScan question answered", Trigger: TriggerQuickScanProgress, Points: 2, IsActive: true},
		{ID: "quickscan-complete", Name: "QuickScan completed", Trigger: TriggerQuickScanComplete, Points: 25, MaxOccurrences: 1, IsActive: true},
		{ID: "email-capture", Name: "Email captured", Trigger: TriggerEmailCapture, Points: 20, MaxOccurrences: 1, IsActive: true},
		{ID: "file-download", Name: "File downloaded", Trigger: TriggerFileDownload, Points: 10, CooldownMinutes: 60, IsActive: true},
		{ID: "form-submit", Name: "Contact form submitted", Trigger: TriggerFormSubmit, Points: 30, MaxOccurrences: 3, CooldownMinutes: 60, IsActive: true},
		{ID: "contact-page-view", Name: "Contact page viewed", Trigger: TriggerContactPageView, Points: 8, CooldownMinutes: 60, IsActive: true},
		{ID: "services-page-view", Name: "Services page viewed", Trigger: TriggerServicesPageView, Points: 5, CooldownMinutes: 60, IsActive: true},
		{ID: "high-engagement", Name: "High engagement signal", Trigger: TriggerHighEngagement, Points: 15, MaxOccurrences: 1, IsActive: true},
	}
}
