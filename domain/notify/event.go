package notify

import (
	"encoding/json"
	"github.com/streadway/amqp"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
	"time"
)

const QueueIngestEvents = "ingest_events"

const (
	StatusDone = "done"
	StatusFail = "fail"
)

/*
StepEvent 一个导入步骤结束时发布到 ingest_events 的消息
*/
type StepEvent struct {
	RunUUID    string                `json:"run_uuid"`
	Step       string                `json:"step"`
	Source     string                `json:"source"`
	Status     string                `json:"status"`
	Stats      biodb.SchemaStepStats `json:"stats"`
	Error      string                `json:"error,omitempty"`
	FinishedAt time.Time             `json:"finished_at"`
}

// EventOf 由已结束的 IngestRun 构造事件
func EventOf(run *biodb.IngestRun) StepEvent {
	event := StepEvent{
		RunUUID: run.RunUUID,
		Step:    run.Step,
		Source:  run.Source,
		Status:  StatusDone,
		Error:   run.Error,
	}
	if run.Status == biodb.RunStatusFail {
		event.Status = StatusFail
	}
	if stats, ok := run.StepStats(); ok {
		event.Stats = stats
	}
	if run.FinishedAt != nil {
		event.FinishedAt = *run.FinishedAt
	}
	return event
}

func DecodeEvent(msg *amqp.Delivery) (StepEvent, error) {
	var event StepEvent
	err := json.Unmarshal(msg.Body, &event)
	return event, utils.WrapError(err, "decode step event fail")
}
