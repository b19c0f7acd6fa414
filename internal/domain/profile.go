package domain

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultTargetCalories is returned when a profile names an unknown method.
const DefaultTargetCalories = 2000

// DefaultMethod is the calculation method given to new profiles.
const DefaultMethod = "harris-benedict"

type Gender int

const (
	GenderOther Gender = iota
	GenderMale
	GenderFemale
)

// ParseGender never fails; anything unrecognised is GenderOther.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	default:
		return GenderOther
	}
}

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	default:
		return "other"
	}
}

func (g Gender) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Gender) UnmarshalText(b []byte) error {
	*g = ParseGender(string(b))
	return nil
}

type ActivityLevel int

const (
	Sedentary ActivityLevel = iota
	LightlyActive
	ModeratelyActive
	VeryActive
	ExtremelyActive
)

var activityNames = map[ActivityLevel]string{
	Sedentary:        "sedentary",
	LightlyActive:    "lightly",
	ModeratelyActive: "moderately",
	VeryActive:       "very",
	ExtremelyActive:  "extremely",
}

// Factor is the TDEE multiplier applied to BMR.
func (a ActivityLevel) Factor() float64 {
	switch a {
	case Sedentary:
		return 1.2
	case LightlyActive:
		return 1.375
	case ModeratelyActive:
		return 1.55
	case VeryActive:
		return 1.725
	case ExtremelyActive:
		return 1.9
	default:
		return 1.2
	}
}

func (a ActivityLevel) String() string {
	if name, ok := activityNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ActivityLevel(%d)", int(a))
}

// ParseActivityLevel accepts the short names ("lightly") as well as the
// long forms ("lightly-active", "LightlyActive").
func ParseActivityLevel(s string) (ActivityLevel, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	key = strings.TrimSuffix(key, "active")
	for level, name := range activityNames {
		if key == name {
			return level, nil
		}
	}
	return 0, fmt.Errorf("unknown activity level: %q", s)
}

func (a ActivityLevel) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *ActivityLevel) UnmarshalText(b []byte) error {
	v, err := ParseActivityLevel(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Profile holds the body measurements used for calorie targets.
// All fields are values, so a plain copy is a full snapshot.
type Profile struct {
	Username string        `json:"username"`
	Gender   Gender        `json:"gender"`
	HeightCM float64       `json:"height_cm"`
	Age      int           `json:"age"`
	WeightKG float64       `json:"weight_kg"`
	Activity ActivityLevel `json:"activity"`
	Method   string        `json:"method"`
}

// NewProfile returns a profile using DefaultMethod.
func NewProfile(username string, gender Gender, heightCM float64, age int, weightKG float64, activity ActivityLevel) Profile {
	return Profile{
		Username: username,
		Gender:   gender,
		HeightCM: heightCM,
		Age:      age,
		WeightKG: weightKG,
		Activity: activity,
		Method:   DefaultMethod,
	}
}

// DailyTargetCalories evaluates the profile's calculation method.
// Unknown methods fall back to DefaultTargetCalories.
func (p Profile) DailyTargetCalories() int {
	calc, ok := LookupCalculator(p.Method)
	if !ok {
		return DefaultTargetCalories
	}
	return calc.Calculate(p)
}

// CalorieCalculator computes a daily calorie target for a profile.
type CalorieCalculator interface {
	Calculate(p Profile) int
}

// CalculatorFunc adapts a function to CalorieCalculator.
type CalculatorFunc func(p Profile) int

func (f CalculatorFunc) Calculate(p Profile) int { return f(p) }

var (
	calcMu      sync.RWMutex
	calculators = map[string]CalorieCalculator{
		"harris-benedict": CalculatorFunc(harrisBenedict),
		"mifflin-st-jeor": CalculatorFunc(mifflinStJeor),
	}
)

// RegisterCalculator makes calc available under name, replacing any
// existing strategy with that name.
func RegisterCalculator(name string, calc CalorieCalculator) {
	calcMu.Lock()
	defer calcMu.Unlock()
	calculators[name] = calc
}

// LookupCalculator returns the strategy registered under name.
func LookupCalculator(name string) (CalorieCalculator, bool) {
	calcMu.RLock()
	defer calcMu.RUnlock()
	calc, ok := calculators[name]
	return calc, ok
}

// CalculatorNames lists registered methods in sorted order.
func CalculatorNames() []string {
	calcMu.RLock()
	defer calcMu.RUnlock()
	names := make([]string, 0, len(calculators))
	for name := range calculators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func harrisBenedict(p Profile) int {
	var bmr float64
	if p.Gender == GenderMale {
		bmr = 88.362 + 13.397*p.WeightKG + 4.799*p.HeightCM - 5.677*float64(p.Age)
	} else {
		bmr = 447.593 + 9.247*p.WeightKG + 3.098*p.HeightCM - 4.330*float64(p.Age)
	}
	return truncCalories(bmr * p.Activity.Factor())
}

func mifflinStJeor(p Profile) int {
	bmr := 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.Age)
	if p.Gender == GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	return truncCalories(bmr * p.Activity.Factor())
}

// truncCalories truncates toward zero and clamps negatives to zero.
func truncCalories(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(v)
}
