package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"sectrain/internal/model"
)

func TestGenerateContent(t *testing.T) {
	Convey("Given a fresh session", t, func() {
		e := newEnv()
		ctx := context.Background()
		session, err := e.svc.Start(ctx, "t1", "e1")
		So(err, ShouldBeNil)

		Convey("When content is generated for the first module", func() {
			module, err := e.mods.GenerateContent(ctx, "t1", session.ID, 0)

			Convey("Then the module enters learning with content", func() {
				So(err, ShouldBeNil)
				So(module.Status, ShouldEqual, model.ModuleLearning)
				So(module.Content, ShouldNotBeNil)
				So(module.Content.Instruction, ShouldContainSubstring, "Phishing")
			})

			Convey("And re-invoking on the same module is a no-op", func() {
				again, err := e.mods.GenerateContent(ctx, "t1", session.ID, 0)
				So(err, ShouldBeNil)
				So(again.Status, ShouldEqual, model.ModuleLearning)
				So(e.gen.calls, ShouldEqual, 1)
			})
		})

		Convey("When a later module is requested out of order", func() {
			_, err := e.mods.GenerateContent(ctx, "t1", session.ID, 1)
			So(errors.Is(err, model.ErrModuleNotUnlockable), ShouldBeTrue)
		})

		Convey("When the index is out of range", func() {
			_, err := e.mods.GenerateContent(ctx, "t1", session.ID, 7)
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the generator fails", func() {
			e.gen.err = fmt.Errorf("%w: provider down", model.ErrAIUnavailable)
			_, err := e.mods.GenerateContent(ctx, "t1", session.ID, 0)

			Convey("Then the failure surfaces and the module stays generating", func() {
				So(errors.Is(err, model.ErrAIUnavailable), ShouldBeTrue)
				module, _ := e.modules.Get(ctx, "t1", session.ID, 0)
				So(module.Status, ShouldEqual, model.ModuleContentGenerating)
				So(module.Content, ShouldBeNil)
			})

			Convey("And a retry succeeds once the generator recovers", func() {
				e.gen.err = nil
				module, err := e.mods.GenerateContent(ctx, "t1", session.ID, 0)
				So(err, ShouldBeNil)
				So(module.Status, ShouldEqual, model.ModuleLearning)
			})
		})

		Convey("When the first module is fully scored", func() {
			_, err := e.completeModule(ctx, session.ID, 0)
			So(err, ShouldBeNil)

			Convey("Then the next module unlocks", func() {
				module, err := e.mods.GenerateContent(ctx, "t1", session.ID, 1)
				So(err, ShouldBeNil)
				So(module.Status, ShouldEqual, model.ModuleLearning)
			})

			Convey("And regenerating the scored module is rejected", func() {
				_, err := e.mods.GenerateContent(ctx, "t1", session.ID, 0)
				So(errors.Is(err, model.ErrModuleNotUnlockable), ShouldBeTrue)
			})
		})
	})
}

func TestSubmitScenarioAnswer(t *testing.T) {
	Convey("Given a module in learning", t, func() {
		e := newEnv()
		ctx := context.Background()
		session, err := e.svc.Start(ctx, "t1", "e1")
		So(err, ShouldBeNil)
		_, err = e.mods.GenerateContent(ctx, "t1", session.ID, 0)
		So(err, ShouldBeNil)

		Convey("When a correct multiple-choice answer is submitted", func() {
			result, err := e.mods.SubmitScenarioAnswer(ctx, "t1", session.ID, 0, "s1", model.ScenarioSubmission{SelectedOption: "Decline and report"})

			Convey("Then it scores 1 and the module is scenario-active", func() {
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, 1.0)
				So(result.Remaining, ShouldEqual, 1)
				module, _ := e.modules.Get(ctx, "t1", session.ID, 0)
				So(module.Status, ShouldEqual, model.ModuleScenarioActive)
			})

			Convey("And answering the same scenario again is rejected", func() {
				_, err := e.mods.SubmitScenarioAnswer(ctx, "t1", session.ID, 0, "s1", model.ScenarioSubmission{SelectedOption: "Comply"})
				So(errors.Is(err, model.ErrScenarioAlreadyAnswered), ShouldBeTrue)
			})
		})

		Convey("When a wrong multiple-choice answer is submitted", func() {
			result, err := e.mods.SubmitScenarioAnswer(ctx, "t1", session.ID, 0, "s1", model.ScenarioSubmission{SelectedOption: "Comply"})

			Convey("Then it scores 0 but still counts as answered", func() {
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, 0.0)
				module, _ := e.modules.Get(ctx, "t1", session.ID, 0)
				So(module.ScenarioResponseFor("s1"), ShouldNotBeNil)
			})
		})

		Convey("When a free-text answer is submitted", func() {
			result, err := e.mods.SubmitScenarioAnswer(ctx, "t1", session.ID, 0, "s2", model.ScenarioSubmission{FreeText: "I would report it."})

			Convey("Then the rubric verdict is recorded with its rationale", func() {
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, 1.0)
				So(result.Rationale, ShouldEqual, "good answer")
			})
		})

		Convey("When the grader is unavailable for a free-text answer", func() {
			e.grader.grade = func(_ context.Context, _, _, _ string) (*model.FreeTextEvaluation, error) {
				return nil, fmt.Errorf("%w: timeout", model.ErrAIUnavailable)
			}
			_, err := e.mods.SubmitScenarioAnswer(ctx, "t1", session.ID, 0, "s2", model.ScenarioSubmission{FreeText: "answer"})

			Convey("Then nothing is recorded and the submission can be retried", func() {
				So(errors.Is(err, model.ErrAIUnavailable), ShouldBeTrue)
				module, _ := e.modules.Get(ctx, "t1", session.ID, 0)
				So(len(module.ScenarioResponses), ShouldEqual, 0)

				e.grader.grade = nil
				_, err := e.mods.SubmitScenarioAnswer(ctx, "t1", session.ID, 0, "s2", model.ScenarioSubmission{FreeText: "answer"})
				So(err, ShouldBeNil)
			})
		})

		Convey("When the scenario id is unknown", func() {
			_, err := e.mods.SubmitScenarioAnswer(ctx, "t1", session.ID, 0, "s9", model.ScenarioSubmission{SelectedOption: "x"})
			So(errors.Is(err, model.ErrUnknownScenario), ShouldBeTrue)
		})

		Convey("When the module has not been unlocked yet", func() {
			_, err := e.mods.SubmitScenarioAnswer(ctx, "t1", session.ID, 1, "s1", model.ScenarioSubmission{SelectedOption: "x"})
			So(errors.Is(err, model.ErrInvalidModulePhase), ShouldBeTrue)
		})
	})
}

func TestSubmitQuiz(t *testing.T) {
	Convey("Given a module with all scenarios answered", t, func() {
		e := newEnv()
		ctx := context.Background()
		session, err := e.svc.Start(ctx, "t1", "e1")
		So(err, ShouldBeNil)
		_, err = e.mods.GenerateContent(ctx, "t1", session.ID, 0)
		So(err, ShouldBeNil)
		_, err = e.mods.SubmitScenarioAnswer(ctx, "t1", session.ID, 0, "s1", model.ScenarioSubmission{SelectedOption: "Decline and report"})
		So(err, ShouldBeNil)
		_, err = e.mods.SubmitScenarioAnswer(ctx, "t1", session.ID, 0, "s2", model.ScenarioSubmission{FreeText: "Report it."})
		So(err, ShouldBeNil)

		fullAnswers := []model.QuizSubmission{
			{QuestionID: "q1", SelectedOption: "Report it"},
			{QuestionID: "q2", FreeText: "Because everyone owns security."},
		}

		Convey("When the full quiz is submitted", func() {
			module, err := e.mods.SubmitQuiz(ctx, "t1", session.ID, 0, fullAnswers)

			Convey("Then the module is scored from quiz answers only", func() {
				So(err, ShouldBeNil)
				So(module.Status, ShouldEqual, model.ModuleScored)
				So(module.ModuleScore, ShouldNotBeNil)
				So(*module.ModuleScore, ShouldEqual, 1.0)
				So(len(module.QuizAnswers), ShouldEqual, 2)
			})

			Convey("Then quiz and completion events are recorded", func() {
				So(len(e.sink.ofType(model.EventQuizSubmitted)), ShouldEqual, 1)
				completed := e.sink.ofType(model.EventModuleCompleted)
				So(len(completed), ShouldEqual, 1)
				So(completed[0].Metadata["moduleScore"], ShouldEqual, 1.0)
			})

			Convey("And resubmitting a scored module is rejected", func() {
				_, err := e.mods.SubmitQuiz(ctx, "t1", session.ID, 0, fullAnswers)
				So(errors.Is(err, model.ErrInvalidModulePhase), ShouldBeTrue)
			})
		})

		Convey("When the answer set misses a question", func() {
			_, err := e.mods.SubmitQuiz(ctx, "t1", session.ID, 0, fullAnswers[:1])
			So(errors.Is(err, model.ErrQuizIncomplete), ShouldBeTrue)
		})

		Convey("When the answer set repeats a question", func() {
			_, err := e.mods.SubmitQuiz(ctx, "t1", session.ID, 0, []model.QuizSubmission{
				{QuestionID: "q1", SelectedOption: "Report it"},
				{QuestionID: "q1", SelectedOption: "Report it"},
			})
			So(errors.Is(err, model.ErrQuizIncomplete), ShouldBeTrue)
		})

		Convey("When a scenario is still unanswered", func() {
			e2 := newEnv()
			s2, err := e2.svc.Start(ctx, "t1", "e1")
			So(err, ShouldBeNil)
			_, err = e2.mods.GenerateContent(ctx, "t1", s2.ID, 0)
			So(err, ShouldBeNil)
			_, err = e2.mods.SubmitScenarioAnswer(ctx, "t1", s2.ID, 0, "s1", model.ScenarioSubmission{SelectedOption: "Comply"})
			So(err, ShouldBeNil)

			_, err = e2.mods.SubmitQuiz(ctx, "t1", s2.ID, 0, fullAnswers)
			So(errors.Is(err, model.ErrInvalidModulePhase), ShouldBeTrue)
		})

		Convey("When the grader fails mid-quiz", func() {
			e.grader.grade = func(_ context.Context, _, _, _ string) (*model.FreeTextEvaluation, error) {
				return nil, fmt.Errorf("%w: timeout", model.ErrAIUnavailable)
			}
			_, err := e.mods.SubmitQuiz(ctx, "t1", session.ID, 0, fullAnswers)

			Convey("Then no partial answers are written and the module stays quiz-active", func() {
				So(errors.Is(err, model.ErrAIUnavailable), ShouldBeTrue)
				module, _ := e.modules.Get(ctx, "t1", session.ID, 0)
				So(module.Status, ShouldEqual, model.ModuleQuizActive)
				So(len(module.QuizAnswers), ShouldEqual, 0)
				So(module.ModuleScore, ShouldBeNil)
			})

			Convey("And resubmitting after recovery scores the module", func() {
				e.grader.grade = nil
				module, err := e.mods.SubmitQuiz(ctx, "t1", session.ID, 0, fullAnswers)
				So(err, ShouldBeNil)
				So(module.Status, ShouldEqual, model.ModuleScored)
			})
		})
	})
}

func TestConcurrentQuizSubmission(t *testing.T) {
	Convey("Given two clients racing to submit the same quiz", t, func() {
		e := newEnv()
		ctx := context.Background()
		session, err := e.svc.Start(ctx, "t1", "e1")
		So(err, ShouldBeNil)
		_, err = e.mods.GenerateContent(ctx, "t1", session.ID, 0)
		So(err, ShouldBeNil)

		// Park the module in quiz-active so both submissions read the same
		// version before either one writes.
		module, err := e.modules.Get(ctx, "t1", session.ID, 0)
		So(err, ShouldBeNil)
		module.Status = model.ModuleQuizActive
		module.ScenarioResponses = []model.ScenarioResponse{
			{ScenarioID: "s1", Score: 1.0},
			{ScenarioID: "s2", Score: 1.0},
		}
		e.modules.setModule(module)

		var barrier sync.WaitGroup
		barrier.Add(2)
		e.grader.grade = func(_ context.Context, _, _, _ string) (*model.FreeTextEvaluation, error) {
			barrier.Done()
			barrier.Wait()
			return &model.FreeTextEvaluation{Score: 1.0}, nil
		}

		answers := []model.QuizSubmission{
			{QuestionID: "q1", SelectedOption: "Report it"},
			{QuestionID: "q2", FreeText: "Because everyone owns security."},
		}

		Convey("When both submit at once", func() {
			results := make(chan error, 2)
			for i := 0; i < 2; i++ {
				go func() {
					_, err := e.mods.SubmitQuiz(ctx, "t1", session.ID, 0, answers)
					results <- err
				}()
			}
			first, second := <-results, <-results

			Convey("Then exactly one submission wins and the other conflicts", func() {
				errs := []error{first, second}
				winners, conflicts := 0, 0
				for _, err := range errs {
					if err == nil {
						winners++
					} else if errors.Is(err, model.ErrConflict) {
						conflicts++
					}
				}
				So(winners, ShouldEqual, 1)
				So(conflicts, ShouldEqual, 1)

				stored, _ := e.modules.Get(ctx, "t1", session.ID, 0)
				So(stored.Status, ShouldEqual, model.ModuleScored)
				So(len(stored.QuizAnswers), ShouldEqual, 2)
			})
		})
	})
}
