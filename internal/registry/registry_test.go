package registry

import "testing"

type stubRuleset struct{ id string }

func (s stubRuleset) ID() string { return s.id }
func (s stubRuleset) Title() string { return "Stub " + s.id }
func (stubRuleset) Settings() Settings { return Settings{ClearThreshold: 4} }
func (stubRuleset) TargetPoint(int) int { return 70 }
func (stubRuleset) OnChain(*Turn) {}
func (stubRuleset) OnAllClear(t *Turn) { t.AllClear = true }
func (stubRuleset) ChainBonus(int) int { return 0 }
func (stubRuleset) ColorBonus(int) int { return 0 }
func (stubRuleset) LinkBonus(int) int { return 0 }

func TestRegisterCreate(t *testing.T) {
	Register("stub-b", func() Ruleset { return stubRuleset{id: "stub-b"} })
	Register("stub-a", func() Ruleset { return stubRuleset{id: "stub-a"} })

	if !Exists("stub-a") || Exists("stub-missing") {
		t.Error("Exists() reported the wrong result")
	}

	r, err := Create("stub-a")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if r.ID() != "stub-a" {
		t.Errorf("ID() = %q, expected %q", r.ID(), "stub-a")
	}

	if _, err := Create("stub-missing"); err == nil {
		t.Error("Create() of unknown ruleset expected error")
	}

	var ids []string
	for _, info := range List() {
		if info.ID == "stub-a" || info.ID == "stub-b" {
			ids = append(ids, info.ID)
			if info.Title != "Stub "+info.ID {
				t.Errorf("Title = %q", info.Title)
			}
		}
	}
	if len(ids) != 2 || ids[0] != "stub-a" {
		t.Errorf("List() order = %v, expected sorted", ids)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("stub-dup", func() Ruleset { return stubRuleset{id: "stub-dup"} })
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register() did not panic")
		}
	}()
	Register("stub-dup", func() Ruleset { return stubRuleset{id: "stub-dup"} })
}
