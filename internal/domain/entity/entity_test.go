package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		now   time.Time
		want  int
	}{
		{"day before birthday", date(2007, 6, 15), date(2025, 6, 14), 17},
		{"on birthday", date(2007, 6, 15), date(2025, 6, 15), 18},
		{"later month", date(2007, 6, 15), date(2025, 7, 1), 18},
		{"leap day before march", date(2008, 2, 29), date(2026, 2, 28), 17},
		{"leap day on march first", date(2008, 2, 29), date(2026, 3, 1), 18},
		{"newborn", date(2025, 6, 1), date(2025, 6, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAt(tt.birth, tt.now))
		})
	}
}

func TestClassify(t *testing.T) {
	now := date(2025, 6, 15)

	assert.Equal(t, ClassificationAdult, Classify(date(2007, 6, 15), now))
	assert.Equal(t, ClassificationMinor, Classify(date(2007, 6, 16), now))
	assert.True(t, Classify(date(2020, 1, 1), now).IsMinor())
}

func TestIsMinorKey(t *testing.T) {
	assert.True(t, IsMinorKey("MIN-0001"))
	assert.True(t, IsMinorKey("MIN-10000"))
	assert.False(t, IsMinorKey("MIN-001"))
	assert.False(t, IsMinorKey("AB123456"))
	assert.False(t, IsMinorKey("min-0001"))
}

func TestIsReservedCin(t *testing.T) {
	assert.True(t, IsReservedCin("MIN-0500"))
	assert.True(t, IsReservedCin(" min-0500 "))
	assert.False(t, IsReservedCin("AB123456"))
	assert.False(t, IsReservedCin("MINA12345"))
}

func TestPatientMinorKeyed(t *testing.T) {
	cin := "MIN-0500"
	other := "AB123456"

	assert.True(t, (&Patient{ID: "MIN-0001"}).MinorKeyed())
	assert.True(t, (&Patient{ID: "MIN-0001", Cin: &other}).MinorKeyed())
	assert.False(t, (&Patient{ID: "MIN-0500", Cin: &cin}).MinorKeyed())
	assert.False(t, (&Patient{ID: "AB123456", Cin: &other}).MinorKeyed())
}

func TestAdultCutoffMatchesClassify(t *testing.T) {
	nows := []time.Time{
		date(2025, 6, 15),
		date(2026, 2, 28),
		date(2026, 3, 1),
		date(2028, 2, 29),
		date(2025, 12, 31),
	}
	for _, now := range nows {
		cutoff := AdultCutoff(now)
		for offset := -2; offset <= 2; offset++ {
			birth := cutoff.AddDate(0, 0, offset)
			wantMinor := Classify(birth, now).IsMinor()
			assert.Equal(t, wantMinor, birth.After(cutoff), "now %s birth %s", now.Format("2006-01-02"), birth.Format("2006-01-02"))
		}
	}

	assert.Equal(t, date(2010, 2, 28), AdultCutoff(date(2028, 2, 29)))
	assert.Equal(t, date(2007, 6, 15), AdultCutoff(time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)))
}

func TestEmployeeTypePrefix(t *testing.T) {
	assert.Equal(t, "MED", EmployeeTypeMedicalStaff.MatriculePrefix())
	assert.Equal(t, "ADM", EmployeeTypeAdministration.MatriculePrefix())
	assert.False(t, EmployeeType("NURSE").IsValid())
}

func TestWorkDaysColumn(t *testing.T) {
	days := WorkDays{Friday, Monday, Friday}

	v, err := days.Value()
	require.NoError(t, err)
	assert.Equal(t, "MONDAY,FRIDAY", v)

	var scanned WorkDays
	require.NoError(t, scanned.Scan([]byte("MONDAY,FRIDAY")))
	assert.Equal(t, WorkDays{Monday, Friday}, scanned)
	assert.True(t, scanned.Contains(Friday))

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	assert.Error(t, scanned.Scan("MONDAY,FUNDAY"))

	empty, err := WorkDays{}.Value()
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestParseWorkDay(t *testing.T) {
	d, err := ParseWorkDay("tuesday")
	require.NoError(t, err)
	assert.Equal(t, Tuesday, d)

	_, err = ParseWorkDay("someday")
	assert.Error(t, err)
}

func TestAuditJSONRoundTrip(t *testing.T) {
	v, err := JSON{"old_id": "MIN-0001"}.Value()
	require.NoError(t, err)

	var j JSON
	require.NoError(t, j.Scan(v))
	assert.Equal(t, "MIN-0001", j["old_id"])
}
