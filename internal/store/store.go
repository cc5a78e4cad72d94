package store

type Store interface {
	Job() Job
	Close() error
}

type DataStore struct {
	job Job
}

func NewStore() Store {
	return &DataStore{
		job: NewJobStore(),
	}
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) Close() error {
	return nil
}
