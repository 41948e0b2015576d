package sim

import "testing"

func TestScalingPolicyCooldown(t *testing.T) {
	t.Parallel()

	p := NewScalingPolicy(5, 2)

	cases := []struct {
		now  Tick
		want int
	}{
		{4, 0},
		{5, 2},
		{7, 0},
		{10, 2},
	}

	for _, c := range cases {
		if got := p.MaybeScale(c.now); got != c.want {
			t.Fatalf("MaybeScale(%d) = %d, want %d", c.now, got, c.want)
		}
	}
}

func TestScalingPolicyFirstCallBeforeCooldownNeverFires(t *testing.T) {
	t.Parallel()

	p := NewScalingPolicy(10, 3)

	if got := p.MaybeScale(5); got != 0 {
		t.Fatalf("expected no fire before cooldown has elapsed from construction, got %d", got)
	}

	if got := p.MaybeScale(10); got != 3 {
		t.Fatalf("expected fire once cooldown has elapsed, got %d", got)
	}
}

func TestScalingPolicyNegativeChangeForScaleDown(t *testing.T) {
	t.Parallel()

	p := NewScalingPolicy(2, -4)

	if got := p.MaybeScale(2); got != -4 {
		t.Fatalf("expected negative delta for a scale-down policy, got %d", got)
	}
}
