package components

// EntityRefComponent 实体在关卡数据中的 (类型, ID) 身份。
// 镜头关键帧通过这对值弱引用实体，绑定阶段由 EntityTable 解析为 EntityID。
type EntityRefComponent struct {
	Kind uint16
	ID   uint16
}
