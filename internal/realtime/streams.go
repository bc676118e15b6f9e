package realtime

// Named realtime streams used across the platform. Project streams are
// suffixed with the project id so subscriptions line up with access scope.
const (
	streamProjectChatPrefix  = "project.chat."
	streamProjectTasksPrefix = "project.tasks."
)

// ProjectChatStream names the chat stream for a project.
func ProjectChatStream(projectID string) string {
	return streamProjectChatPrefix + projectID
}

// ProjectTaskStream names the task-update stream for a project.
func ProjectTaskStream(projectID string) string {
	return streamProjectTasksPrefix + projectID
}
