package model

import "time"

// Frequency is how often a run repeats.
type Frequency string

const (
	FrequencyOnce     Frequency = "once"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyAnnually Frequency = "annually"
)

// Holiday names a floating date resolved per year.
type Holiday string

const (
	HolidayThanksgiving   Holiday = "Thanksgiving Day"
	HolidaySummerSolstice Holiday = "Summer Solstice"
	HolidayWinterSolstice Holiday = "Winter Solstice"
)

// Recurrence describes how a run repeats. Which fields must be set depends
// on Frequency; the expander enforces that, not the type.
type Recurrence struct {
	Frequency Frequency `yaml:"frequency" json:"frequency"`

	// Day is the weekday, 0 = Sunday through 6 = Saturday.
	Day *int `yaml:"day" json:"day"`

	// Interval is in weeks for weekly rules and months for monthly rules.
	Interval int `yaml:"interval" json:"interval"`

	// WeekNumber is the 1-5 ordinal for "nth weekday of the month" rules.
	WeekNumber *int `yaml:"weekNumber" json:"weekNumber"`

	// MonthNumber is 1-12, used by annual nth-weekday rules.
	MonthNumber *int `yaml:"monthNumber" json:"monthNumber"`

	// Date is an anchor or first-occurrence date in YYYY-MM-DD form.
	Date *string `yaml:"date" json:"date"`

	Holiday *Holiday `yaml:"holiday" json:"holiday"`
}

// RunOption is one distance variant of a run.
type RunOption struct {
	Name            *string  `yaml:"name" json:"name"`
	Leaders         []string `yaml:"leaders" json:"leaders"`
	Distance        string   `yaml:"distance" json:"distance"`
	Vert            string   `yaml:"vert" json:"vert"`
	Pace            *string  `yaml:"pace" json:"pace"`
	Category        string   `yaml:"category" json:"category"`
	MeetTime        string   `yaml:"meetTime" json:"meetTime"`
	StartTime       string   `yaml:"startTime" json:"startTime"`
	EventLink       *string  `yaml:"eventLink" json:"eventLink"`
	StravaEventLink *string  `yaml:"stravaEventLink" json:"stravaEventLink"`
	MeetupEventLink *string  `yaml:"meetupEventLink" json:"meetupEventLink"`
	StravaRouteLink *string  `yaml:"stravaRouteLink" json:"stravaRouteLink"`
	GPXLink         *string  `yaml:"gpxLink" json:"gpxLink"`
}

// Run is an authored run template. ID and OrganizationID are assigned by
// the loader from the file tree, not read from the record.
type Run struct {
	ID              string      `yaml:"-" json:"-"`
	OrganizationID  string      `yaml:"-" json:"-"`
	DescriptionHTML *string     `yaml:"-" json:"-"`
	Title           string      `yaml:"title" json:"title"`
	Description     *string     `yaml:"description" json:"description"`
	Location        string      `yaml:"location" json:"location"`
	Recurrence      Recurrence  `yaml:"recurrence" json:"recurrence"`
	Hosts           []string    `yaml:"hosts" json:"hosts"`
	Organizers      []string    `yaml:"organizers" json:"organizers"`
	Options         []RunOption `yaml:"runs" json:"runs"`
	EventLink       *string     `yaml:"eventLink" json:"eventLink"`
	StravaEventLink *string     `yaml:"stravaEventLink" json:"stravaEventLink"`
	MeetupEventLink *string     `yaml:"meetupEventLink" json:"meetupEventLink"`
}

// EarliestStartTime returns the lexicographically smallest option start
// time, or "" when the run has no options.
func (r Run) EarliestStartTime() string {
	earliest := ""
	for i, opt := range r.Options {
		if i == 0 || opt.StartTime < earliest {
			earliest = opt.StartTime
		}
	}
	return earliest
}

type Organization struct {
	ID              string   `yaml:"-" json:"-"`
	DescriptionHTML *string  `yaml:"-" json:"-"`
	Name            string   `yaml:"name" json:"name"`
	Description     *string  `yaml:"description" json:"description"`
	Contacts        []string `yaml:"contacts" json:"contacts"`
	Website         *string  `yaml:"website" json:"website"`
	StravaID        *string  `yaml:"stravaId" json:"stravaId"`
	StravaHandle    *string  `yaml:"stravaHandle" json:"stravaHandle"`
	MeetupID        *string  `yaml:"meetupId" json:"meetupId"`
	InstagramHandle *string  `yaml:"instagramHandle" json:"instagramHandle"`
	Email           *string  `yaml:"email" json:"email"`
	PhoneNumber     *string  `yaml:"phoneNumber" json:"phoneNumber"`
}

type User struct {
	ID              string  `yaml:"-" json:"-"`
	DescriptionHTML *string `yaml:"-" json:"-"`
	FirstName       string  `yaml:"firstName" json:"firstName"`
	LastName        string  `yaml:"lastName" json:"lastName"`
	Email           *string `yaml:"email" json:"email"`
	PhoneNumber     *string `yaml:"phoneNumber" json:"phoneNumber"`
	HasWhatsApp     *bool   `yaml:"hasWhatsApp" json:"hasWhatsApp"`
	StravaID        *string `yaml:"stravaId" json:"stravaId"`
	InstagramHandle *string `yaml:"instagramHandle" json:"instagramHandle"`
}

type Address struct {
	Street string `yaml:"street" json:"street"`
	City   string `yaml:"city" json:"city"`
	State  string `yaml:"state" json:"state"`
	Zip    string `yaml:"zip" json:"zip"`
}

type Location struct {
	ID              string   `yaml:"-" json:"-"`
	DescriptionHTML *string  `yaml:"-" json:"-"`
	Name            string   `yaml:"name" json:"name"`
	Lat             *float64 `yaml:"lat" json:"lat"`
	Lng             *float64 `yaml:"lng" json:"lng"`
	Region          *string  `yaml:"region" json:"region"`
	Address         *Address `yaml:"address" json:"address"`
	GoogleMapsLink  *string  `yaml:"googleMapsLink" json:"googleMapsLink"`
}

// Dataset is the full authored corpus handed to the compiler, keyed by id.
type Dataset struct {
	Organizations map[string]Organization
	Users         map[string]User
	Locations     map[string]Location
	Runs          map[string]Run
}

// Occurrence is a single concrete date of a run inside the compile window.
type Occurrence struct {
	// ID is "{runId}-{date}".
	ID    string
	RunID string
	Date  time.Time

	WeekNumberMonday int
	WeekNumberSunday int
}
