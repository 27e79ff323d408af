package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/lockforge/internal/core/domain"
)

func planned(entries map[string][]string) map[string]domain.LockedDependency {
	out := make(map[string]domain.LockedDependency, len(entries))
	for name, deps := range entries {
		rec := domain.LockedDependency{Name: name, Manager: domain.ManagerConda, Platform: "linux-64", Dependencies: map[string]string{}}
		for _, dep := range deps {
			rec.Dependencies[dep] = ""
		}
		out[name] = rec
	}
	return out
}

func TestApplyCategories(t *testing.T) {
	graph := planned(map[string][]string{
		"app":    {"lib", "python"},
		"lib":    {"python"},
		"pytest": {"pluggy", "python"},
		"pluggy": {"python"},
		"python": {"__glibc"},
		"orphan": nil,
	})

	explicit := []domain.Dependency{
		domain.NewVersionedDependency("app", domain.ManagerConda, ""),
		domain.NewVersionedDependency("pytest", domain.ManagerConda, "").WithCategory(domain.CategoryDev, true),
	}

	got := domain.ApplyCategories(explicit, graph)

	assert.Equal(t, []string{"main"}, got["app"].Categories)
	assert.False(t, got["app"].Optional)

	assert.Equal(t, []string{"main"}, got["lib"].Categories)

	assert.Equal(t, []string{"dev"}, got["pytest"].Categories)
	assert.True(t, got["pytest"].Optional)
	assert.Equal(t, []string{"dev"}, got["pluggy"].Categories)
	assert.True(t, got["pluggy"].Optional)

	assert.Equal(t, []string{"dev", "main"}, got["python"].Categories)
	assert.False(t, got["python"].Optional, "reachable from a required dependency")

	assert.Equal(t, []string{"main"}, got["orphan"].Categories)
	assert.False(t, got["orphan"].Optional)

	assert.Nil(t, graph["app"].Categories, "input must not be modified")
}

func TestApplyCategories_HandlesCycles(t *testing.T) {
	graph := planned(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})
	explicit := []domain.Dependency{
		domain.NewVersionedDependency("a", domain.ManagerConda, "").WithCategory("docs", true),
	}

	got := domain.ApplyCategories(explicit, graph)
	assert.Equal(t, []string{"docs"}, got["b"].Categories)
	assert.True(t, got["b"].Optional)
}
