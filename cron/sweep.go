package cron

import (
	"github.com/gocrud/component/inject"
	"github.com/gocrud/component/logging"
)

// SweepJobName 内置的跟踪器清理任务名称
const SweepJobName = "inject-sweep"

// SweepJob 清理跟踪器中已被回收的实例
type SweepJob struct {
	Engine *inject.Engine `di:""`
	Logger logging.Logger `di:"optional"`
}

func (j *SweepJob) Run() error {
	removed := j.Engine.Tracker().Sweep()
	if j.Logger != nil && removed > 0 {
		j.Logger.Debug("Injection tracker swept", logging.Field{Key: "removed", Value: removed})
	}
	return nil
}
