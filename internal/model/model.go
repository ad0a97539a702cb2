package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Run{},
	&FrameStat{},
	&SummaryStat{},
	&BandStat{},
}

// Run is one analysed segment.
type Run struct {
	gorm.Model
	UUID       string         `json:"uuid" gorm:"size:36;uniqueIndex"`
	Segment    string         `json:"segment" gorm:"size:200;index:idx_run_segment"`
	Source     string         `json:"source" gorm:"size:500"`
	StartTime  time.Time      `json:"startTime" gorm:"index:idx_run_start"`
	EndTime    *time.Time     `json:"endTime"`
	Frames     int            `json:"frames"`
	FPS        float64        `json:"fps"`
	Window     int            `json:"window"`
	Parameters datatypes.JSON `json:"parameters"` // thresholds and classes used for the run

	FrameStats   []FrameStat   `json:"-"`
	SummaryStats []SummaryStat `json:"-"`
	BandStats    []BandStat    `json:"-"`
}

func (*Run) TableName() string {
	return "runs"
}

// FrameStat is one row of the per-frame speed and distance table.
type FrameStat struct {
	ID             uint    `json:"id" gorm:"primarykey;autoIncrement"`
	RunID          uint    `json:"runId" gorm:"index:idx_framestat_run_track,priority:1"`
	Run            Run     `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	ObjectType     string  `json:"objectType" gorm:"size:16"`
	TrackID        int     `json:"trackId" gorm:"index:idx_framestat_run_track,priority:2"`
	FrameNum       int     `json:"frameNum"`
	SpeedKmh       float64 `json:"speedKmh"`
	TotalDistanceM float64 `json:"totalDistanceM"`
}

func (*FrameStat) TableName() string {
	return "frame_stats"
}

// SummaryStat is one entity's summary over a run.
type SummaryStat struct {
	ID             uint    `json:"id" gorm:"primarykey;autoIncrement"`
	RunID          uint    `json:"runId" gorm:"index:idx_summarystat_run_id"`
	Run            Run     `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	ObjectType     string  `json:"objectType" gorm:"size:16"`
	TrackID        int     `json:"trackId"`
	FinalDistanceM float64 `json:"finalDistanceM"`
	AvgSpeedKmh    float64 `json:"avgSpeedKmh"`
	MaxSpeedKmh    float64 `json:"maxSpeedKmh"`
}

func (*SummaryStat) TableName() string {
	return "summary_stats"
}

// BandStat is one entity's distance split by speed band.
type BandStat struct {
	ID                uint    `json:"id" gorm:"primarykey;autoIncrement"`
	RunID             uint    `json:"runId" gorm:"index:idx_bandstat_run_id"`
	Run               Run     `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	TrackID           int     `json:"trackId"`
	LowSpeedDistanceM float64 `json:"lowSpeedDistanceM"`
	HSRDistanceM      float64 `json:"hsrDistanceM"`
	SprintDistanceM   float64 `json:"sprintDistanceM"`
	Segment           string  `json:"segment" gorm:"size:200"`
}

func (*BandStat) TableName() string {
	return "band_stats"
}
