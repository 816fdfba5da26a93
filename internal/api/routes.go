package api

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the task API on r. Static paths under /tasks are
// registered next to /tasks/{id}; chi matches them before the parameter.
func RegisterRoutes(r chi.Router, tasks *TaskHandler, stream *StreamHandler) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", tasks.ListTasks)
		r.Post("/", tasks.SubmitTask)
		r.Get("/stats", tasks.GetStats)
		r.Get("/stream", stream.Stream)
		r.Delete("/completed", tasks.ClearCompleted)

		r.Get("/{id}", tasks.GetTask)
		r.Delete("/{id}", tasks.DeleteTask)
		r.Post("/{id}/cancel", tasks.CancelTask)
	})
	r.Get("/executors", tasks.ListExecutors)
}

