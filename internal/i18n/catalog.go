package i18n

var catalogRU = map[string]string{
	"calendar.title": "Календарь",
	"calendar.today": "Сегодня",

	"calendar.eventTypes.TASK":                "Задача",
	"calendar.eventTypes.INSTRUCTION":         "Инструктаж",
	"calendar.eventTypes.MEETING":             "Встреча",
	"calendar.eventTypes.TRAINING":            "Обучение",
	"calendar.eventTypes.OTHER":               "Другое",
	"calendar.eventTypes.ADDITIONAL_TRAINING": "Дополнительное обучение",
	"calendar.eventTypes.SAFETY_INSTRUCTION":  "Инструкция по охране труда",
	"calendar.eventTypes.CALENDAR_EVENT":      "Событие",

	"calendar.status.TODO":        "К выполнению",
	"calendar.status.IN_PROGRESS": "В работе",
	"calendar.status.DONE":        "Выполнено",

	"calendar.priority.LOW":    "Низкий",
	"calendar.priority.MEDIUM": "Средний",
	"calendar.priority.HIGH":   "Высокий",

	"calendar.fields.employee":       "Сотрудник",
	"calendar.fields.profession":     "Профессия",
	"calendar.fields.position":       "Должность",
	"calendar.fields.validityPeriod": "Периодичность",
	"calendar.fields.participants":   "Участники",
	"calendar.fields.date":           "Дата",
	"calendar.fields.priority":       "Приоритет",
	"calendar.fields.status":         "Статус",

	"calendar.unknownEmployee":   "Неизвестный сотрудник",
	"calendar.unknownProfession": "Неизвестная профессия",
	"calendar.unknownPosition":   "Неизвестная должность",
	"calendar.validityMonths":    "{count} мес.",
	"calendar.noEvents":          "Нет событий",

	"calendar.months.1":  "Январь",
	"calendar.months.2":  "Февраль",
	"calendar.months.3":  "Март",
	"calendar.months.4":  "Апрель",
	"calendar.months.5":  "Май",
	"calendar.months.6":  "Июнь",
	"calendar.months.7":  "Июль",
	"calendar.months.8":  "Август",
	"calendar.months.9":  "Сентябрь",
	"calendar.months.10": "Октябрь",
	"calendar.months.11": "Ноябрь",
	"calendar.months.12": "Декабрь",

	"calendar.weekdays.1": "Пн",
	"calendar.weekdays.2": "Вт",
	"calendar.weekdays.3": "Ср",
	"calendar.weekdays.4": "Чт",
	"calendar.weekdays.5": "Пт",
	"calendar.weekdays.6": "Сб",
	"calendar.weekdays.7": "Вс",
}

var catalogEN = map[string]string{
	"calendar.title": "Calendar",
	"calendar.today": "Today",

	"calendar.eventTypes.TASK":                "Task",
	"calendar.eventTypes.INSTRUCTION":         "Instruction",
	"calendar.eventTypes.MEETING":             "Meeting",
	"calendar.eventTypes.TRAINING":            "Training",
	"calendar.eventTypes.OTHER":               "Other",
	"calendar.eventTypes.ADDITIONAL_TRAINING": "Additional training",
	"calendar.eventTypes.SAFETY_INSTRUCTION":  "Safety instruction",
	"calendar.eventTypes.CALENDAR_EVENT":      "Event",

	"calendar.status.TODO":        "To do",
	"calendar.status.IN_PROGRESS": "In progress",
	"calendar.status.DONE":        "Done",

	"calendar.priority.LOW":    "Low",
	"calendar.priority.MEDIUM": "Medium",
	"calendar.priority.HIGH":   "High",

	"calendar.fields.employee":       "Employee",
	"calendar.fields.profession":     "Profession",
	"calendar.fields.position":       "Position",
	"calendar.fields.validityPeriod": "Validity period",
	"calendar.fields.participants":   "Participants",
	"calendar.fields.date":           "Date",
	"calendar.fields.priority":       "Priority",
	"calendar.fields.status":         "Status",

	"calendar.unknownEmployee":   "Unknown employee",
	"calendar.unknownProfession": "Unknown profession",
	"calendar.unknownPosition":   "Unknown position",
	"calendar.validityMonths":    "{count} mo.",
	"calendar.noEvents":          "No events",

	"calendar.months.1":  "January",
	"calendar.months.2":  "February",
	"calendar.months.3":  "March",
	"calendar.months.4":  "April",
	"calendar.months.5":  "May",
	"calendar.months.6":  "June",
	"calendar.months.7":  "July",
	"calendar.months.8":  "August",
	"calendar.months.9":  "September",
	"calendar.months.10": "October",
	"calendar.months.11": "November",
	"calendar.months.12": "December",

	"calendar.weekdays.1": "Mon",
	"calendar.weekdays.2": "Tue",
	"calendar.weekdays.3": "Wed",
	"calendar.weekdays.4": "Thu",
	"calendar.weekdays.5": "Fri",
	"calendar.weekdays.6": "Sat",
	"calendar.weekdays.7": "Sun",
}
