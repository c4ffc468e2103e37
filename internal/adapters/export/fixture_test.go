package export

import (
	"time"

	"testcase-recorder/internal/domain"
)

func fixtureTestCase() domain.TestCase {
	started := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	ended := started.Add(42 * time.Second)
	status := 200
	return domain.TestCase{
		Session: domain.Session{
			ID:          "tc_9f3a21bc",
			Name:        "example.com_login",
			StartedAt:   started,
			EndedAt:     &ended,
			BrowserKind: domain.BrowserChromium,
			TargetURL:   "https://example.com/login",
			TimeoutMs:   30000,
			State:       domain.StateStopped,
		},
		Steps: []domain.Step{
			{
				Sequence:    1,
				Kind:        domain.ActionClick,
				RawType:     "click",
				Target:      domain.Target{Selector: "#login-button", ElementID: "login-button", Text: "Login"},
				Description: `Click on "Login"`,
				Timestamp:   started.Add(time.Second),
				Screenshot:  "screenshots/001_click_login.png",
				NetworkEvents: []domain.NetworkEvent{{
					Method: "GET",
					URL:    "https://example.com/api/user",
					Status: &status,
					RequestHeaders: map[string]string{
						"Accept":        "application/json",
						"Authorization": "Bearer secret-token",
					},
					Timestamp: started.Add(1200 * time.Millisecond),
				}},
				ConsoleEvents: []domain.ConsoleEvent{{
					Level:     domain.LevelWarn,
					Message:   "deprecated API",
					Timestamp: started.Add(1100 * time.Millisecond),
				}},
			},
			{
				Sequence:      2,
				Kind:          domain.ActionInput,
				RawType:       "input",
				Target:        domain.Target{Selector: "#email", Placeholder: "email"},
				Value:         "a@b.com",
				Description:   `Type "a@b.com" in "email"`,
				Timestamp:     started.Add(2 * time.Second),
				NetworkEvents: []domain.NetworkEvent{},
				ConsoleEvents: []domain.ConsoleEvent{},
			},
		},
		PageErrors: []domain.PageError{{
			Message:   "TypeError: undefined is not a function",
			Timestamp: started.Add(3 * time.Second),
		}},
		Diagnostics: domain.Diagnostics{PreRecordingDropped: 1, ScreenshotFailures: 1},
	}
}
