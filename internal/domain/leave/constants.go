package leave

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

type SlotKind string

const (
	SlotFullDay       SlotKind = "full_day"
	SlotHalfMorning   SlotKind = "half_day_morning"
	SlotHalfAfternoon SlotKind = "half_day_afternoon"
	SlotHourly        SlotKind = "hourly"
)

func (k SlotKind) Valid() bool {
	switch k {
	case SlotFullDay, SlotHalfMorning, SlotHalfAfternoon, SlotHourly:
		return true
	}
	return false
}

func (k SlotKind) HalfDay() bool {
	return k == SlotHalfMorning || k == SlotHalfAfternoon
}

// MaxRangeDays bounds the day-by-day enumeration; a single request longer
// than a full year is rejected at validation time.
const MaxRangeDays = 366
