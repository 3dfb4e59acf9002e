package fetch

import (
	"net/url"
	"strings"
)

// Platform is an applicant tracking system that hosts job postings.
type Platform string

const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformAshby      Platform = "ashby"
	PlatformUnknown    Platform = "unknown"
)

// board describes how postings on one platform are laid out.
type board struct {
	platform Platform
	hosts    []string // registrable domains; subdomains match too
	content  []string // most specific first
	noise    []string
}

var boards = []board{
	{
		platform: PlatformGreenhouse,
		hosts:    []string{"greenhouse.io"},
		content: []string{
			".job__description.body",
			".job__description",
			".job-description__content",
			"#content",
			".job-post-container",
		},
		noise: []string{
			".application--wrapper",
			".voluntary-self-id",
			".voluntary-self-id-wrapper",
			"#usa_self_id_section",
			".post-apply",
		},
	},
	{
		platform: PlatformLever,
		hosts:    []string{"lever.co"},
		content: []string{
			".posting-page",
			".section-wrapper.page-full-width",
			".posting-description",
			".content",
		},
		noise: []string{".apply-section", ".lever-application-form", ".posting-apply"},
	},
	{
		platform: PlatformWorkday,
		hosts:    []string{"workday.com", "myworkdayjobs.com"},
		content: []string{
			"[data-automation-id='jobDescription']",
			".WDXK",
			".gwt-HTML",
			".job-description",
		},
		noise: []string{"[data-automation-id='applyButton']", ".application-section", ".WDAF"},
	},
	{
		platform: PlatformAshby,
		hosts:    []string{"ashbyhq.com"},
		content:  []string{"[class*='descriptionText']", "main"},
		noise:    []string{".ashby-application-form-container"},
	},
}

// commonNoise is stripped from every posting: application forms, EEO
// disclosures, share widgets and cookie banners.
var commonNoise = []string{
	"form",
	"#application-form",
	".application-form",
	".application--container",
	".apply-button-container",
	"[data-testid='application-form']",
	".voluntary-disclosure",
	".eeo-statement",
	".eeo-section",
	"[data-testid='eeo']",
	".legal-disclosure",
	".self-identification",
	".social-share",
	".share-buttons",
	".social-links",
	".cookie-banner",
	".cookie-consent",
	".gdpr-notice",
}

// DetectPlatform identifies the job board hosting urlStr.
func DetectPlatform(urlStr string) Platform {
	if b := boardFor(urlStr); b != nil {
		return b.platform
	}
	return PlatformUnknown
}

func boardFor(urlStr string) *board {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil
	}
	host := strings.ToLower(parsed.Hostname())
	for i := range boards {
		for _, domain := range boards[i].hosts {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return &boards[i]
			}
		}
	}
	return nil
}

func lookup(p Platform) *board {
	for i := range boards {
		if boards[i].platform == p {
			return &boards[i]
		}
	}
	return nil
}

// PlatformContentSelectors returns the description selectors for a platform,
// falling back to JobPostingSelectors.
func PlatformContentSelectors(p Platform) []string {
	if b := lookup(p); b != nil {
		return append([]string(nil), b.content...)
	}
	return JobPostingSelectors()
}

// PlatformNoiseSelectors returns the selectors removed before text
// extraction on a platform.
func PlatformNoiseSelectors(p Platform) []string {
	out := append([]string(nil), commonNoise...)
	if b := lookup(p); b != nil {
		out = append(out, b.noise...)
	}
	return out
}
