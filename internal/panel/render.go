package panel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"misinfo-guard/internal/models"
)

// ContainerID is the id of the element wrapping the single overlay.
const ContainerID = "misinfo-guard-panel-container"

const statusChecking = "checking"

var required = []string{
	"#mg-header-icon",
	"#mg-title-image",
	"#mg-status-icon",
	"#mg-status-text",
	"#mg-reason",
	"#mg-selected-headline",
	"#mg-prediction-detail",
	"#mg-close-btn",
}

type content struct {
	headline      string
	icons         map[string]string
	mgIcon        string
	mgTitleImg    string
	status        string
	reason        string
	probabilities models.Probabilities
}

// Normalize returns the misleading and verified shares as percentages of
// their sum. Other labels are ignored; a zero sum yields 0 and 0.
func Normalize(p models.Probabilities) (misleading, verified float64) {
	m, v := p["misleading"], p["verified"]
	total := m + v
	if total == 0 {
		total = 1
	}
	return m / total * 100, v / total * 100
}

// Percent formats a percentage with one decimal place.
func Percent(x float64) string {
	return strconv.FormatFloat(x, 'f', 1, 64) + "%"
}

func checkStructure(root *goquery.Selection) error {
	var missing []string
	for _, sel := range required {
		if root.Find(sel).Length() == 0 {
			missing = append(missing, sel)
		}
	}
	if root.Find(".mg-panel").Length() == 0 {
		missing = append(missing, ".mg-panel")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingUIStructure, strings.Join(missing, ", "))
	}
	return nil
}

func render(root *goquery.Selection, c content) error {
	if err := checkStructure(root); err != nil {
		return err
	}
	status := strings.ToLower(c.status)
	if status == "" {
		status = string(models.StatusError)
	}

	if c.mgIcon != "" {
		root.Find("#mg-header-icon").SetAttr("src", c.mgIcon).SetAttr("alt", "MisInfo Guard Icon")
	}
	if c.mgTitleImg != "" {
		root.Find("#mg-title-image").
			SetAttr("src", c.mgTitleImg).
			SetAttr("alt", "MisInfo Guard Title").
			SetAttr("style", "display: block")
	}
	root.Find("#mg-selected-headline").SetText(c.headline)

	icon, ok := c.icons[status]
	if !ok {
		icon = c.icons[string(models.StatusError)]
	}
	root.Find("#mg-status-icon").SetAttr("src", icon).SetAttr("alt", status+" status icon")
	root.Find("#mg-status-text").
		SetText(strings.ToUpper(status)).
		SetAttr("class", "mg-status-text mg-status-"+status)
	root.Find("#mg-reason").SetText(c.reason)

	detail := root.Find("#mg-prediction-detail")
	switch {
	case status == statusChecking:
		detail.SetHtml(`<p class="mg-loading-text">Calculating confidence...</p>`)
	case c.probabilities != nil:
		fake, genuine := Normalize(c.probabilities)
		detail.SetHtml(fmt.Sprintf(`<div class="mg-prob-item">`+
			`<span class="mg-label mg-label-fake">Fake / Misleading:</span>`+
			`<span class="mg-value mg-value-fake">%s</span></div>`+
			`<div class="mg-prob-item">`+
			`<span class="mg-label mg-label-real">Real / Verified:</span>`+
			`<span class="mg-value mg-value-real">%s</span></div>`,
			Percent(fake), Percent(genuine)))
	default:
		detail.SetHtml(`<p class="mg-info-text">Confidence scores not available.</p>`)
	}
	return nil
}
