package ngram

import (
	"errors"
	"testing"
)

func TestFreqDist(t *testing.T) {
	fd := freqDistOf("b", "a", "b", "c", "b", "a")

	if fd.N() != 6 {
		t.Errorf("N() = %d, want 6", fd.N())
	}
	if fd.B() != 3 {
		t.Errorf("B() = %d, want 3", fd.B())
	}
	if got := fd.Samples(); len(got) != 3 || got[0] != "b" || got[1] != "a" || got[2] != "c" {
		t.Errorf("Samples() = %v, want first-seen order [b a c]", got)
	}
	if fd.Count("b") != 3 || fd.Count("z") != 0 {
		t.Errorf("Count() = %d/%d, want 3/0", fd.Count("b"), fd.Count("z"))
	}
	if fd.Nr(1) != 1 || fd.Nr(2) != 1 || fd.Nr(3) != 1 || fd.Nr(0) != 0 {
		t.Errorf("Nr() returned unexpected values")
	}
	if fd.Max() != "b" {
		t.Errorf("Max() = %q, want %q", fd.Max(), "b")
	}

	samples := fd.Samples()
	samples[0] = "mutated"
	if fd.Samples()[0] != "b" {
		t.Error("Samples() exposed internal state")
	}
}

func TestMLE(t *testing.T) {
	pd, err := MLE{}.Estimate(freqDistOf("a", "a", "b", "c"), 0)
	if err != nil {
		t.Fatalf("Estimate() failed: %v", err)
	}
	if !almostEqual(pd.Prob("a"), 0.5) {
		t.Errorf("Prob(a) = %v, want 0.5", pd.Prob("a"))
	}
	if pd.Prob("z") != 0 {
		t.Errorf("Prob(z) = %v, want 0", pd.Prob("z"))
	}
	if pd.Discount() != 0 {
		t.Errorf("Discount() = %v, want 0", pd.Discount())
	}

	_, err = MLE{}.Estimate(NewFreqDist(), 0)
	if !errors.Is(err, ErrInvalidEstimator) {
		t.Errorf("Estimate(empty) error = %v, want ErrInvalidEstimator", err)
	}
}

func TestLidstone(t *testing.T) {
	fd := freqDistOf("a", "a", "b", "c")

	testCases := []struct {
		name      string
		estimator Lidstone
		hint      int
		word      string
		want      float64
		wantName  string
		wantErr   bool
	}{
		{name: "Laplace seen", estimator: Laplace(0), word: "a", want: 3.0 / 8, wantName: "Laplace"},
		{name: "Laplace unseen", estimator: Laplace(0), word: "z", want: 1.0 / 8, wantName: "Laplace"},
		{name: "Laplace explicit bins", estimator: Laplace(5), word: "z", want: 1.0 / 9, wantName: "Laplace"},
		{name: "Explicit bins override hint", estimator: Laplace(5), hint: 10, word: "z", want: 1.0 / 9, wantName: "Laplace"},
		{name: "Hint used when bins zero", estimator: Laplace(0), hint: 10, word: "a", want: 3.0 / 14, wantName: "Laplace"},
		{name: "Small hint raised", estimator: Laplace(0), hint: 2, word: "a", want: 3.0 / 8, wantName: "Laplace"},
		{name: "ELE seen", estimator: ELE(0), word: "b", want: 1.5 / 6, wantName: "ELE"},
		{name: "Lidstone gamma 0.1", estimator: Lidstone{Gamma: 0.1}, word: "a", want: 2.1 / 4.4, wantName: "Lidstone"},
		{name: "Negative gamma", estimator: Lidstone{Gamma: -1}, wantErr: true},
		{name: "Too few bins", estimator: Laplace(2), wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pd, err := tc.estimator.Estimate(fd, tc.hint)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidEstimator) {
					t.Fatalf("Estimate() error = %v, want ErrInvalidEstimator", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Estimate() failed: %v", err)
			}
			if got := pd.Prob(tc.word); !almostEqual(got, tc.want) {
				t.Errorf("Prob(%q) = %v, want %v", tc.word, got, tc.want)
			}
			if got := tc.estimator.Name(); got != tc.wantName {
				t.Errorf("Name() = %q, want %q", got, tc.wantName)
			}
		})
	}

	// Seen words plus every unseen bin account for all the mass.
	for _, hint := range []int{0, 2, 10} {
		pd, err := Laplace(0).Estimate(freqDistOf("a", "a", "b"), hint)
		if err != nil {
			t.Fatalf("Estimate(hint %d) failed: %v", hint, err)
		}
		bins := max(hint, 3)
		total := pd.Prob("a") + pd.Prob("b") + float64(bins-2)*pd.Prob("zz")
		if !almostEqual(total, 1) {
			t.Errorf("hint %d: total mass = %v, want 1", hint, total)
		}
	}

	_, err := Lidstone{Gamma: 0}.Estimate(NewFreqDist(), 0)
	if !errors.Is(err, ErrInvalidEstimator) {
		t.Errorf("Estimate(empty, gamma 0) error = %v, want ErrInvalidEstimator", err)
	}
}

func TestSimpleGoodTuring(t *testing.T) {
	t.Run("Single sample takes all mass", func(t *testing.T) {
		pd, err := SimpleGoodTuring{}.Estimate(freqDistOf("b", "b"), 3)
		if err != nil {
			t.Fatalf("Estimate() failed: %v", err)
		}
		if !almostEqual(pd.Prob("b"), 1) {
			t.Errorf("Prob(b) = %v, want 1", pd.Prob("b"))
		}
		if pd.Prob("z") != 0 {
			t.Errorf("Prob(z) = %v, want 0", pd.Prob("z"))
		}
		if pd.Discount() != 0 {
			t.Errorf("Discount() = %v, want 0", pd.Discount())
		}
	})

	t.Run("Unseen mass is N1 over N", func(t *testing.T) {
		fd := freqDistOf("a", "b", "a", "b", "c", "d")
		pd, err := SimpleGoodTuring{}.Estimate(fd, 0)
		if err != nil {
			t.Fatalf("Estimate() failed: %v", err)
		}
		if got := pd.Prob("unseen"); !almostEqual(got, 1.0/3) {
			t.Errorf("Prob(unseen) = %v, want 1/3", got)
		}
		if got := pd.Discount(); !almostEqual(got, 1.0/3) {
			t.Errorf("Discount() = %v, want 1/3", got)
		}

		var seen float64
		for _, w := range fd.Samples() {
			seen += pd.Prob(w)
		}
		if !almostEqual(seen, 2.0/3) {
			t.Errorf("seen mass = %v, want 2/3", seen)
		}
		if pd.Prob("a") <= pd.Prob("c") {
			t.Errorf("Prob(a) = %v should exceed Prob(c) = %v", pd.Prob("a"), pd.Prob("c"))
		}
	})

	t.Run("Explicit bins spread unseen mass", func(t *testing.T) {
		fd := freqDistOf("a", "b", "a", "b", "c", "d")
		pd, err := SimpleGoodTuring{Bins: 8}.Estimate(fd, 0)
		if err != nil {
			t.Fatalf("Estimate() failed: %v", err)
		}
		if got := pd.Prob("unseen"); !almostEqual(got, 1.0/12) {
			t.Errorf("Prob(unseen) = %v, want 1/12", got)
		}
	})

	t.Run("Bins not above B", func(t *testing.T) {
		_, err := SimpleGoodTuring{Bins: 2}.Estimate(freqDistOf("a", "b", "c"), 0)
		if !errors.Is(err, ErrInvalidEstimator) {
			t.Errorf("Estimate() error = %v, want ErrInvalidEstimator", err)
		}
	})
}

func TestProbDistGenerate(t *testing.T) {
	pd, err := MLE{}.Estimate(freqDistOf("only"), 0)
	if err != nil {
		t.Fatalf("Estimate() failed: %v", err)
	}
	rng := newRand(1)
	for i := 0; i < 20; i++ {
		if got := pd.Generate(rng); got != "only" {
			t.Fatalf("Generate() = %q, want %q", got, "only")
		}
	}

	pd, err = Laplace(0).Estimate(freqDistOf("x", "y", "y"), 0)
	if err != nil {
		t.Fatalf("Estimate() failed: %v", err)
	}
	for i := 0; i < 50; i++ {
		if got := pd.Generate(rng); got != "x" && got != "y" {
			t.Fatalf("Generate() = %q, want a seen sample", got)
		}
	}
}
