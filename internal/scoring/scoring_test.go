package scoring_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"sectrain/internal/model"
	"sectrain/internal/scoring"
)

func ptr(v float64) *float64 { return &v }

func TestMultipleChoice(t *testing.T) {
	Convey("Given multiple-choice scoring", t, func() {
		Convey("When the submitted option matches the answer key", func() {
			So(scoring.MultipleChoice("B", "B"), ShouldEqual, 1.0)
		})

		Convey("When the submitted option does not match", func() {
			So(scoring.MultipleChoice("A", "B"), ShouldEqual, 0.0)
		})

		Convey("When the submission is empty", func() {
			Convey("Then it never matches, even an empty answer key", func() {
				So(scoring.MultipleChoice("", ""), ShouldEqual, 0.0)
				So(scoring.MultipleChoice("", "B"), ShouldEqual, 0.0)
			})
		})
	})
}

func TestClamp01(t *testing.T) {
	Convey("Given score clamping", t, func() {
		So(scoring.Clamp01(-0.5), ShouldEqual, 0.0)
		So(scoring.Clamp01(0.0), ShouldEqual, 0.0)
		So(scoring.Clamp01(0.42), ShouldEqual, 0.42)
		So(scoring.Clamp01(1.0), ShouldEqual, 1.0)
		So(scoring.Clamp01(1.5), ShouldEqual, 1.0)
	})
}

func TestModuleScore(t *testing.T) {
	Convey("Given a full quiz-answer set", t, func() {
		answers := []model.QuizAnswer{
			{QuestionID: "q1", Score: 1.0},
			{QuestionID: "q2", Score: 0.0},
			{QuestionID: "q3", Score: 0.5},
		}

		Convey("Then the module score is the arithmetic mean", func() {
			So(scoring.ModuleScore(answers), ShouldEqual, 0.5)
		})

		Convey("And an empty set scores zero", func() {
			So(scoring.ModuleScore(nil), ShouldEqual, 0.0)
		})
	})
}

func TestAggregateScore(t *testing.T) {
	Convey("Given scored modules", t, func() {
		modules := []*model.TrainingModule{
			{ModuleIndex: 0, ModuleScore: ptr(1.0)},
			{ModuleIndex: 1, ModuleScore: ptr(0.6)},
			{ModuleIndex: 2, ModuleScore: ptr(0.8)},
		}

		Convey("Then the aggregate is the mean of module scores", func() {
			agg, err := scoring.AggregateScore(modules)
			So(err, ShouldBeNil)
			So(agg, ShouldAlmostEqual, 0.8)
		})

		Convey("When a module has no score", func() {
			modules[1].ModuleScore = nil

			Convey("Then aggregation fails", func() {
				_, err := scoring.AggregateScore(modules)
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When there are no modules", func() {
			_, err := scoring.AggregateScore(nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestPassed(t *testing.T) {
	Convey("Given the pass threshold comparison", t, func() {
		So(scoring.Passed(0.7, 0.7), ShouldBeTrue)
		So(scoring.Passed(0.71, 0.7), ShouldBeTrue)
		So(scoring.Passed(0.69, 0.7), ShouldBeFalse)
	})
}

func TestWeakAreas(t *testing.T) {
	Convey("Given scored modules and a threshold", t, func() {
		modules := []*model.TrainingModule{
			{ModuleIndex: 0, Topic: "Phishing", ModuleScore: ptr(0.9)},
			{ModuleIndex: 1, Topic: "Passwords", ModuleScore: ptr(0.5)},
			{ModuleIndex: 2, Topic: "Social engineering", ModuleScore: ptr(0.7)},
		}

		Convey("Then only modules strictly below the threshold are weak", func() {
			So(scoring.WeakAreas(modules, 0.7), ShouldResemble, []string{"Passwords"})
		})

		Convey("And no weak modules yields nil", func() {
			So(scoring.WeakAreas(modules, 0.4), ShouldBeNil)
		})
	})
}
