package bind_group_provider

// BufferWrite describes one write into the buffer a provider holds at Binding.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
