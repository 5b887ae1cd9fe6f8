package config

type WorkerKeyStruct struct {
	PersistAnswersQueue string
	PersistCheatsQueue  string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue: "persist_answers_queue",
	PersistCheatsQueue:  "persist_cheats_queue",
}
