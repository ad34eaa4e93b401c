package task_test

import (
	"testing"

	"rota/internal/task"
)

func TestNotification_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		n    task.Notification
		ok   bool
	}{
		{"empty profile", task.Notification{}, true},
		{"full profile", task.Notification{
			Sound:    "bell",
			Level:    task.LevelCritical,
			Icon:     "https://cdn.example.com/icons/drop.png",
			Image:    "https://cdn.example.com/img/plants.jpg",
			URL:      "https://example.com/routines/1",
			CallMode: true,
		}, true},
		{"unknown level", task.Notification{Level: "shouty"}, false},
		{"relative icon url", task.Notification{Icon: "/icons/drop.png"}, false},
		{"non-http scheme", task.Notification{URL: "ftp://example.com/x"}, false},
		{"bare host image", task.Notification{Image: "cdn.example.com/a.png"}, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.n.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("Validate() = nil, want error")
			}
		})
	}
}

func TestNotification_SoundCatalogueHasSilent(t *testing.T) {
	t.Parallel()

	found := false
	for _, s := range task.Sounds {
		if s == "silent" {
			found = true
		}
	}
	if !found {
		t.Fatal("sound catalogue must offer silent")
	}
}
