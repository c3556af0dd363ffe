package content

import (
	"fmt"

	"github.com/JonMunkholm/eduadmin/internal/dataview"
)

type record = dataview.Record

func init() {
	registerDefaults()
}

func registerDefaults() {
	Register(coursesScreen())
	Register(lessonsScreen())
	Register(exercisesScreen())
	Register(quizzesScreen())
	Register(questionsScreen())
}

var (
	statusColors = map[string]string{
		"draft":     "gray",
		"published": "green",
		"archived":  "orange",
	}
	levelColors = map[string]string{
		"beginner":     "blue",
		"intermediate": "purple",
		"advanced":     "red",
	}

	statusOptions = []dataview.Option{
		{Value: "draft", Label: "Draft"},
		{Value: "published", Label: "Published"},
		{Value: "archived", Label: "Archived"},
	}
)

var (
	btnView   = dataview.ActionButton{Tag: string(ActionView), Label: "View"}
	btnEdit   = dataview.ActionButton{Tag: string(ActionEdit), Label: "Edit"}
	btnDelete = dataview.ActionButton{Tag: string(ActionDelete), Label: "Delete", Confirm: "Delete this item?"}
	btnCreate = dataview.ActionButton{Tag: string(ActionCreate), Label: "New"}
	btnBulk   = dataview.ActionButton{Tag: string(ActionDelete), Label: "Delete selected", Confirm: "Delete the selected items?"}
)

func textCol(id, label string) Column {
	return Column{ID: id, Label: label, Sortable: true}
}

func badgeCol(id, label string, colors map[string]string) Column {
	return Column{ID: id, Label: label, Sortable: true, Display: dataview.Display[record]{
		Kind: dataview.KindBadge, Colors: colors,
	}}
}

func dateCol(id, label string) Column {
	return Column{ID: id, Label: label, Sortable: true, Display: dataview.Display[record]{Kind: dataview.KindDate}}
}

func numCol(id, label string) Column {
	return Column{ID: id, Label: label, Sortable: true, Aggregate: true}
}

func coursesScreen() Screen {
	return Screen{
		Key:      "courses",
		Group:    "Curriculum",
		Label:    "Courses",
		Table:    "courses",
		KeyField: "id",
		Query: `SELECT id, code, title, description, level, status,
		               teacher_first_name, teacher_last_name, academic_year,
		               completion, start_date, end_date, created_at,
		               (SELECT count(*) FROM lessons l WHERE l.course_id = c.id) AS lesson_count
		          FROM courses c
		         WHERE academic_year = $1`,
		YearScoped: true,
		YearColumn: "academic_year",
		Columns: []Column{
			{
				ID: "title", Label: "Course", Sortable: true,
				Display: dataview.Display[record]{
					Kind:    dataview.KindAvatar,
					Subtext: dataview.Composite[record](" ", "teacher_first_name", "teacher_last_name"),
				},
			},
			textCol("code", "Code"),
			badgeCol("level", "Level", levelColors),
			badgeCol("status", "Status", statusColors),
			numCol("lesson_count", "Lessons"),
			{ID: "completion", Label: "Completion", Sortable: true, Display: dataview.Display[record]{Kind: dataview.KindProgress}},
			dateCol("start_date", "Starts"),
		},
		Filters: []Filter{
			{Field: "status", Label: "Status", Kind: dataview.FilterSelect, Options: statusOptions},
			{Field: "level", Label: "Level", Kind: dataview.FilterSelect, DeriveOptions: true},
			{
				Field: "teacher", Label: "Teacher", Kind: dataview.FilterSelect, DeriveOptions: true,
				Accessor: dataview.Composite[record](" ", "teacher_first_name", "teacher_last_name"),
			},
			{Field: "start_date", Label: "Start date", Kind: dataview.FilterDateRange},
		},
		Searchable: []dataview.Accessor[record]{
			dataview.Direct[record]("title"),
			dataview.Direct[record]("code"),
			dataview.Composite[record](" ", "teacher_first_name", "teacher_last_name"),
		},
		DefaultSort: "title",
		Actions:     []dataview.ActionButton{btnView, btnEdit, {Tag: "publish", Label: "Publish"}, {Tag: "archive", Label: "Archive"}, btnDelete},
		Global:      []dataview.ActionButton{btnCreate, btnBulk},
		Fields: []FieldSpec{
			{Name: "code", Label: "Code", Rules: "required,max=32"},
			{Name: "title", Label: "Title", Rules: "required,max=200"},
			{Name: "description", Label: "Description", Rules: "omitempty,max=4000"},
			{Name: "level", Label: "Level", Rules: "omitempty,oneof=beginner intermediate advanced"},
			{Name: "status", Label: "Status", Rules: "omitempty,oneof=draft published archived"},
			{Name: "teacher_first_name", Label: "Teacher first name", Rules: "omitempty,max=100"},
			{Name: "teacher_last_name", Label: "Teacher last name", Rules: "omitempty,max=100"},
			{Name: "completion", Label: "Completion", Rules: "omitempty,numeric"},
			{Name: "start_date", Label: "Start date", Rules: "omitempty,date"},
			{Name: "end_date", Label: "End date", Rules: "omitempty,date"},
		},
		CardTitle:    "title",
		CardSubtitle: "code",
		CardBadge:    "status",
	}
}

func lessonsScreen() Screen {
	return Screen{
		Key:   "lessons",
		Group: "Curriculum",
		Label: "Lessons",
		Table: "lessons",
		Query: `SELECT l.id, l.course_id, c.title AS course_title, l.title, l.position,
		               l.duration_minutes, l.status, l.published_at, l.created_at
		          FROM lessons l
		          JOIN courses c ON c.id = l.course_id
		         WHERE c.academic_year = $1`,
		YearScoped: true,
		Columns: []Column{
			textCol("title", "Lesson"),
			textCol("course_title", "Course"),
			numCol("position", "#"),
			numCol("duration_minutes", "Minutes"),
			badgeCol("status", "Status", statusColors),
			dateCol("published_at", "Published"),
		},
		Filters: []Filter{
			{Field: "course_title", Label: "Course", Kind: dataview.FilterSelect, DeriveOptions: true},
			{Field: "status", Label: "Status", Kind: dataview.FilterSelect, Options: statusOptions},
			{Field: "published_at", Label: "Published on", Kind: dataview.FilterDate},
		},
		DefaultSort: "position",
		Actions:     []dataview.ActionButton{btnView, btnEdit, btnDelete},
		Global:      []dataview.ActionButton{btnCreate, btnBulk},
		Fields: []FieldSpec{
			{Name: "course_id", Label: "Course", Rules: "required,numeric"},
			{Name: "title", Label: "Title", Rules: "required,max=200"},
			{Name: "position", Label: "Position", Rules: "omitempty,numeric"},
			{Name: "duration_minutes", Label: "Duration", Rules: "omitempty,numeric"},
			{Name: "status", Label: "Status", Rules: "omitempty,oneof=draft published archived"},
		},
		CardTitle:    "title",
		CardSubtitle: "course_title",
		CardBadge:    "status",
	}
}

func exercisesScreen() Screen {
	return Screen{
		Key:   "exercises",
		Group: "Practice",
		Label: "Exercises",
		Table: "exercises",
		Query: `SELECT e.id, e.lesson_id, l.title AS lesson_title, e.title, e.kind,
		               e.difficulty, e.max_score, e.due_date, e.created_at
		          FROM exercises e
		          JOIN lessons l ON l.id = e.lesson_id
		          JOIN courses c ON c.id = l.course_id
		         WHERE c.academic_year = $1`,
		YearScoped: true,
		Columns: []Column{
			textCol("title", "Exercise"),
			textCol("lesson_title", "Lesson"),
			badgeCol("kind", "Kind", map[string]string{"practice": "blue", "homework": "purple", "exam": "red"}),
			{ID: "difficulty", Label: "Difficulty", Sortable: true, Display: dataview.Display[record]{
				Kind: dataview.KindCustom,
				Render: func(r record) string {
					n, _ := dataview.ToFloat(r["difficulty"])
					return fmt.Sprintf(`<span class="stars" title="%d/5">%s</span>`, int(n), stars(int(n)))
				},
			}},
			numCol("max_score", "Max score"),
			dateCol("due_date", "Due"),
		},
		Filters: []Filter{
			{Field: "kind", Label: "Kind", Kind: dataview.FilterSelect, DeriveOptions: true},
			{Field: "lesson_title", Label: "Lesson", Kind: dataview.FilterText},
			{Field: "due_date", Label: "Due", Kind: dataview.FilterDateRange},
		},
		DefaultSort: "due_date",
		Actions:     []dataview.ActionButton{btnView, btnEdit, btnDelete},
		Global:      []dataview.ActionButton{btnCreate, btnBulk},
		Fields: []FieldSpec{
			{Name: "lesson_id", Label: "Lesson", Rules: "required,numeric"},
			{Name: "title", Label: "Title", Rules: "required,max=200"},
			{Name: "kind", Label: "Kind", Rules: "omitempty,oneof=practice homework exam"},
			{Name: "difficulty", Label: "Difficulty", Rules: "omitempty,numeric"},
			{Name: "max_score", Label: "Max score", Rules: "omitempty,numeric"},
			{Name: "due_date", Label: "Due date", Rules: "omitempty,date"},
		},
		CardTitle:    "title",
		CardSubtitle: "lesson_title",
		CardBadge:    "kind",
	}
}

func quizzesScreen() Screen {
	return Screen{
		Key:   "quizzes",
		Group: "Assessment",
		Label: "Quizzes",
		Table: "quizzes",
		Query: `SELECT q.id, q.course_id, c.title AS course_title, q.title, q.status,
		               q.pass_mark, q.time_limit_minutes, q.opens_at, q.closes_at, q.created_at,
		               (SELECT count(*) FROM questions x WHERE x.quiz_id = q.id) AS question_count
		          FROM quizzes q
		          JOIN courses c ON c.id = q.course_id
		         WHERE c.academic_year = $1`,
		YearScoped: true,
		Columns: []Column{
			{
				ID: "title", Label: "Quiz", Sortable: true,
				Display: dataview.Display[record]{Kind: dataview.KindAvatar, Subtext: dataview.Direct[record]("course_title")},
			},
			badgeCol("status", "Status", statusColors),
			numCol("question_count", "Questions"),
			{ID: "pass_mark", Label: "Pass mark", Sortable: true, Display: dataview.Display[record]{Kind: dataview.KindProgress}},
			numCol("time_limit_minutes", "Minutes"),
			dateCol("opens_at", "Opens"),
			dateCol("closes_at", "Closes"),
		},
		Filters: []Filter{
			{Field: "status", Label: "Status", Kind: dataview.FilterSelect, Options: statusOptions},
			{Field: "course_title", Label: "Course", Kind: dataview.FilterSelect, DeriveOptions: true},
			{Field: "opens_at", Label: "Opens", Kind: dataview.FilterDateRange},
		},
		Searchable: []dataview.Accessor[record]{
			dataview.Direct[record]("title"),
			dataview.Direct[record]("course_title"),
		},
		DefaultSort: "opens_at",
		Actions:     []dataview.ActionButton{btnView, btnEdit, {Tag: "publish", Label: "Publish"}, btnDelete},
		Global:      []dataview.ActionButton{btnCreate, btnBulk},
		Fields: []FieldSpec{
			{Name: "course_id", Label: "Course", Rules: "required,numeric"},
			{Name: "title", Label: "Title", Rules: "required,max=200"},
			{Name: "status", Label: "Status", Rules: "omitempty,oneof=draft published archived"},
			{Name: "pass_mark", Label: "Pass mark", Rules: "omitempty,numeric"},
			{Name: "time_limit_minutes", Label: "Time limit", Rules: "omitempty,numeric"},
			{Name: "opens_at", Label: "Opens", Rules: "omitempty,date"},
			{Name: "closes_at", Label: "Closes", Rules: "omitempty,date"},
		},
		CardTitle:    "title",
		CardSubtitle: "course_title",
		CardBadge:    "status",
	}
}

func questionsScreen() Screen {
	return Screen{
		Key:   "questions",
		Group: "Assessment",
		Label: "Questions",
		Table: "questions",
		Query: `SELECT x.id, x.quiz_id, q.title AS quiz_title, x.prompt, x.kind,
		               x.points, x.position, x.created_at
		          FROM questions x
		          JOIN quizzes q ON q.id = x.quiz_id
		          JOIN courses c ON c.id = q.course_id
		         WHERE c.academic_year = $1`,
		YearScoped: true,
		Columns: []Column{
			textCol("prompt", "Question"),
			textCol("quiz_title", "Quiz"),
			badgeCol("kind", "Kind", map[string]string{"single": "blue", "multiple": "purple", "true_false": "teal", "open": "orange"}),
			numCol("points", "Points"),
			numCol("position", "#"),
		},
		Filters: []Filter{
			{Field: "quiz_title", Label: "Quiz", Kind: dataview.FilterSelect, DeriveOptions: true},
			{Field: "kind", Label: "Kind", Kind: dataview.FilterSelect, Options: []dataview.Option{
				{Value: "single", Label: "Single choice"},
				{Value: "multiple", Label: "Multiple choice"},
				{Value: "true_false", Label: "True / false"},
				{Value: "open", Label: "Open answer"},
			}},
		},
		DefaultSort: "position",
		Actions:     []dataview.ActionButton{btnEdit, btnDelete},
		Global:      []dataview.ActionButton{btnCreate, btnBulk},
		Fields: []FieldSpec{
			{Name: "quiz_id", Label: "Quiz", Rules: "required,numeric"},
			{Name: "prompt", Label: "Prompt", Rules: "required,max=2000"},
			{Name: "kind", Label: "Kind", Rules: "required,oneof=single multiple true_false open"},
			{Name: "points", Label: "Points", Rules: "omitempty,numeric"},
			{Name: "position", Label: "Position", Rules: "omitempty,numeric"},
		},
		CardTitle:    "prompt",
		CardSubtitle: "quiz_title",
		CardBadge:    "kind",
	}
}

func stars(n int) string {
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	s := ""
	for i := 0; i < 5; i++ {
		if i < n {
			s += "★"
		} else {
			s += "☆"
		}
	}
	return s
}
