package config

type WorkerKeyStruct struct {
	PersistAttemptsQueue   string
	PersistSessionEndQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAttemptsQueue:   "persist_attempts_queue",
	PersistSessionEndQueue: "persist_session_end_queue",
}
