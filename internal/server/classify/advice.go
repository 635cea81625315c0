package classify

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cityfix/internal/server/models"
)

// Advice is the templated text returned with a prediction: an
// acknowledgment for the citizen and numbered next steps for the authority.
type Advice struct {
	Acknowledgment string `json:"acknowledgment"`
	Suggestion     string `json:"suggestion"`
}

var urgencyLines = map[Urgency]string{
	UrgencyHigh:   "We've flagged this as HIGH priority and will act immediately.",
	UrgencyMedium: "We've marked this as MEDIUM priority and will schedule a prompt response.",
	UrgencyLow:    "We've marked this as LOW priority and will address it in the normal queue.",
}

var categorySteps = map[models.Category][]string{
	models.CategoryRoad: {
		"Inspect the reported site and place temporary warning signage/barriers.",
		"Schedule repair (pothole fill / resurfacing) and notify traffic control if needed.",
	},
	models.CategoryWater: {
		"Send a crew to isolate the leak/clog and prevent flooding.",
		"Clear blockage and test water flow/drainage after repair.",
	},
	models.CategorySanitation: {
		"Arrange immediate cleaning/garbage pickup for the affected area.",
		"Ensure recurring collection schedule is reinstated and monitored.",
	},
	models.CategoryElectricity: {
		"Check feeder/transformer status and dispatch an electrical maintenance crew.",
		"Repair fault and confirm power restoration; monitor for repeated outages.",
	},
	models.CategorySafety: {
		"Notify the nearest patrol/unit and increase monitoring of the area.",
		"Address hazards (e.g., missing cover/light/signal) with the relevant department.",
	},
}

// Steps lists the suggested resolution steps for p in order.
func Steps(p Prediction) []string {
	steps := []string{
		"Log the complaint and assign it to the responsible department.",
		"Verify the location/details and capture evidence (photo/video) if available.",
	}
	if p.Urgency == UrgencyHigh {
		steps = append([]string{"Dispatch an on-call team to assess and make the area safe."}, steps...)
	}
	steps = append(steps, categorySteps[p.Category]...)
	return append(steps, "Update the complaint status once work is completed.")
}

func Advise(p Prediction) Advice {
	line, ok := urgencyLines[p.Urgency]
	if !ok {
		line = urgencyLines[UrgencyLow]
	}

	steps := Steps(p)
	numbered := make([]string, len(steps))
	for i, s := range steps {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, s)
	}

	return Advice{
		Acknowledgment: fmt.Sprintf("Thanks for reporting this %s issue. %s You will receive updates as it progresses.", p.Category, line),
		Suggestion:     strings.Join(numbered, " "),
	}
}
