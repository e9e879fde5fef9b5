package importer

import (
	"fmt"
	"strings"
)

type Stage string

const (
	StageBrands     Stage = "brands"
	StageCategories Stage = "categories"
	StageProducts   Stage = "products"
	// StageAll runs every stage in order.
	StageAll Stage = "all"
)

// Stages is the fixed run order.
var Stages = []Stage{StageBrands, StageCategories, StageProducts}

func ParseStage(s string) (Stage, error) {
	switch stage := Stage(strings.ToLower(strings.TrimSpace(s))); stage {
	case "":
		return StageAll, nil
	case StageAll, StageBrands, StageCategories, StageProducts:
		return stage, nil
	default:
		return "", fmt.Errorf("unknown stage %q (want all, brands, categories or products)", s)
	}
}

func (s Stage) String() string { return string(s) }
