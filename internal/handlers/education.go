package handlers

import (
	"net/http"
)

type educationTopic struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Static educational copy rendered by the content page. The scoring data
// itself lives in the catalog; this is prose only.
var educationTopics = []educationTopic{
	{
		Key:   "diaas",
		Title: "DIAAS — Digestible Indispensable Amino Acid Score",
		Summary: "DIAAS measures how well a protein supplies the indispensable amino " +
			"acids your body can actually absorb, based on ileal digestibility. Scores " +
			"above 1.0 mean the protein more than covers requirements; whey isolate " +
			"reaches about 1.25 while most grains fall below 0.6.",
	},
	{
		Key:   "pdcaas",
		Title: "PDCAAS — Protein Digestibility Corrected Amino Acid Score",
		Summary: "PDCAAS is the older quality metric, based on fecal digestibility and " +
			"capped at 1.0 by convention. It overstates some plant proteins compared to " +
			"DIAAS, which is why DIAAS is preferred whenever both are available.",
	},
	{
		Key:   "daily-value",
		Title: "Daily Value percentage",
		Summary: "Nutrition labels may state protein as a percentage of the 50 g FDA " +
			"reference daily value. The calculator converts that percentage back to " +
			"grams; when the label's grams and its DV% disagree by more than half a " +
			"gram, the difference is flagged for information.",
	},
	{
		Key:   "quality-adjusted",
		Title: "Quality-adjusted protein",
		Summary: "Multiplying the stated grams by the effective quality score gives the " +
			"amount of protein your body can realistically use. Combining complementary " +
			"sources, such as legumes with grains, lifts the blended score above either " +
			"ingredient alone.",
	},
	{
		Key:   "unscored-sources",
		Title: "Sources without scores",
		Summary: "Some whole foods have no published DIAAS or PDCAAS data. The " +
			"calculator assumes a conservative default score of 0.75 for them and " +
			"reports the result under the DIAAS method.",
	},
}

// Education serves the static content backing the educational page.
func Education(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, educationTopics)
}
