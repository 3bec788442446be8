package domain

import "testing"

func TestParseChargeState(t *testing.T) {
	cases := []struct {
		raw  string
		want ChargeState
	}{
		{"charging", Charging},
		{"Charging", Charging},
		{"discharging", Discharging},
		{"Discharging\n", Discharging},
		{"full", Full},
		{"fully-charged", Full},
		{"Not charging", Unknown},
		{"pending-charge", Unknown},
		{"", Unknown},
	}
	for _, c := range cases {
		if got := ParseChargeState(c.raw); got != c.want {
			t.Errorf("ParseChargeState(%q) = %s, want %s", c.raw, got, c.want)
		}
	}
}

func TestBatteryReadingKnown(t *testing.T) {
	if (BatteryReading{Percent: UnknownPercent}).Known() {
		t.Error("sentinel must not be known")
	}
	if !(BatteryReading{Percent: 0}).Known() {
		t.Error("0% is a real reading")
	}
	if !(BatteryReading{Percent: 100}).Known() {
		t.Error("100% is a real reading")
	}
}
