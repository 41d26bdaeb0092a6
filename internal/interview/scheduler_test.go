package interview

import (
	"math/rand/v2"
	"reflect"
	"testing"
	"time"
)

func TestDistributeTargets(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category
		total      int
		want       QuestionTypeTarget
	}{
		{
			name:       "remainder to first",
			categories: []Category{CategoryTechnical, CategoryBehavioral},
			total:      5,
			want:       QuestionTypeTarget{CategoryTechnical: 3, CategoryBehavioral: 2},
		},
		{
			name:       "remainder to first two",
			categories: []Category{CategoryHR, CategoryTechnical, CategoryBehavioral},
			total:      8,
			want:       QuestionTypeTarget{CategoryHR: 3, CategoryTechnical: 3, CategoryBehavioral: 2},
		},
		{
			name:       "fewer questions than categories",
			categories: []Category{CategoryHR, CategoryTechnical, CategoryBehavioral},
			total:      2,
			want:       QuestionTypeTarget{CategoryHR: 1, CategoryTechnical: 1, CategoryBehavioral: 0},
		},
		{
			name:       "no categories",
			categories: nil,
			total:      5,
			want:       QuestionTypeTarget{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistributeTargets(tt.categories, tt.total)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DistributeTargets() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectNextCategory_TechnicalBehavioralScenario(t *testing.T) {
	order := []Category{CategoryTechnical, CategoryBehavioral}
	target := DistributeTargets(order, 5)
	asked := AskedTypeCount{CategoryTechnical: 2, CategoryBehavioral: 1}

	if got := SelectNextCategory(order, target, asked); got != CategoryTechnical {
		t.Fatalf("tie should go to the first listed category, got %s", got)
	}
}

func TestSelectNextCategory(t *testing.T) {
	order := []Category{CategoryBehavioral, CategoryTechnical, CategoryHR}
	target := QuestionTypeTarget{CategoryBehavioral: 1, CategoryTechnical: 3, CategoryHR: 2}

	tests := []struct {
		name  string
		asked AskedTypeCount
		want  Category
	}{
		{"most starved wins", AskedTypeCount{}, CategoryTechnical},
		{"tie goes to first listed", AskedTypeCount{CategoryTechnical: 1}, CategoryTechnical},
		{"tie later in order", AskedTypeCount{CategoryTechnical: 2, CategoryHR: 1}, CategoryBehavioral},
		{"all met falls back", AskedTypeCount{CategoryBehavioral: 1, CategoryTechnical: 3, CategoryHR: 2}, DefaultCategory},
		{"overshoot falls back", AskedTypeCount{CategoryBehavioral: 2, CategoryTechnical: 4, CategoryHR: 2}, DefaultCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectNextCategory(order, target, tt.asked); got != tt.want {
				t.Errorf("SelectNextCategory() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSelectNextCategory_DeterministicAndPure(t *testing.T) {
	order := []Category{CategoryHR, CategoryTechnical}
	target := QuestionTypeTarget{CategoryHR: 2, CategoryTechnical: 2}
	asked := AskedTypeCount{CategoryHR: 1}

	first := SelectNextCategory(order, target, asked)
	for i := 0; i < 100; i++ {
		if got := SelectNextCategory(order, target, asked); got != first {
			t.Fatalf("call %d returned %s, first returned %s", i, got, first)
		}
	}
	if !reflect.DeepEqual(asked, AskedTypeCount{CategoryHR: 1}) {
		t.Fatalf("asked was mutated: %v", asked)
	}
}

// Every plan converges: after total questions the asked counts equal the
// targets exactly, whatever the category order and size.
func TestScheduler_Convergence(t *testing.T) {
	all := []Category{CategoryTechnical, CategoryBehavioral, CategoryHR, CategoryCustom}
	rng := rand.New(rand.NewPCG(42, 7))

	for trial := 0; trial < 500; trial++ {
		order := append([]Category(nil), all...)
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		order = order[:1+rng.IntN(len(order))]
		total := 1 + rng.IntN(MaxQuestions)

		target := DistributeTargets(order, total)
		sum := 0
		for _, v := range target {
			sum += v
		}
		if sum != total {
			t.Fatalf("order=%v total=%d: targets sum to %d", order, total, sum)
		}

		s := &Session{Asked: AskedTypeCount{}}
		for i := 0; i < total; i++ {
			c := SelectNextCategory(order, target, s.Asked)
			CommitQuestion(s, QuestionBlock{Category: c}, time.Time{})
			if s.Asked[c] > target[c] {
				t.Fatalf("order=%v total=%d: asked[%s]=%d exceeds target %d", order, total, c, s.Asked[c], target[c])
			}
		}
		for _, c := range order {
			if s.Asked[c] != target[c] {
				t.Fatalf("order=%v total=%d: asked[%s]=%d, want %d", order, total, c, s.Asked[c], target[c])
			}
		}
	}
}

func TestCommitQuestion(t *testing.T) {
	s := &Session{Pending: NoPendingQuestion{}}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	block := QuestionBlock{Question: "Why channels?", Category: CategoryTechnical}

	CommitQuestion(s, block, now)

	p, ok := s.PendingQuestion()
	if !ok {
		t.Fatal("expected a pending question")
	}
	if p.Block != block || !p.IssuedAt.Equal(now) {
		t.Errorf("pending = %+v", p)
	}
	if s.Asked[CategoryTechnical] != 1 {
		t.Errorf("asked[technical] = %d, want 1", s.Asked[CategoryTechnical])
	}
}
