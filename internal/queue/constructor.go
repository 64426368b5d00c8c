package queue

import (
	"github.com/maheshrc27/cascade-scheduler/internal/repository"
	"github.com/maheshrc27/cascade-scheduler/internal/service"
)

type Queue struct {
	sr repository.SubmissionRepository
	ps service.PostingService
}

func NewQueue(sr repository.SubmissionRepository, ps service.PostingService) *Queue {
	return &Queue{
		sr: sr,
		ps: ps,
	}
}

const TaskTypeSubmitPost = "schedule:submit"

type SubmitPostPayload struct {
	SubmissionID string `json:"submission_id"`
}
