package configuration

// UpdateConfigurationDTO is a partial update: nil fields keep their stored
// value.
type UpdateConfigurationDTO struct {
	ParallelTasksPerTechnician *bool `json:"parallel_tasks_per_technician,omitempty"`
	MultiTechniciansPerTask    *bool `json:"multi_technicians_per_task,omitempty"`
	OnlyCreatorEndTask         *bool `json:"only_creator_end_task,omitempty"`
	RestartTask                *bool `json:"restart_task,omitempty"`
}

func (dto UpdateConfigurationDTO) Empty() bool {
	return dto.ParallelTasksPerTechnician == nil &&
		dto.MultiTechniciansPerTask == nil &&
		dto.OnlyCreatorEndTask == nil &&
		dto.RestartTask == nil
}
