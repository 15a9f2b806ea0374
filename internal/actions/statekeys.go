package actions

// Dotted state paths shared by the loop's state builder, action
// preconditions/effects and goal predicates. Two nesting levels by
// convention: <context>.<key>.
const (
	// character_status: liveness and health.
	KeyAlive          = "character_status.alive"
	KeySafe           = "character_status.safe"
	KeyHPFull         = "character_status.hp_full"
	KeyLevel          = "character_status.level"
	KeyHP             = "character_status.hp"
	KeyCooldownActive = "character_status.cooldown_active"

	// combat_context: the hunt state machine.
	KeyCombatStatus          = "combat_context.status"
	KeyCombatTargetAvailable = "combat_context.target_available"
	KeyCombatViabilityOK     = "combat_context.viability_checked"

	// materials: the gathering/crafting state machine.
	KeyMaterialsStatus       = "materials.status"
	KeyMaterialsRequirements = "materials.requirements_determined"
	KeyMaterialsRawAvailable = "materials.raw_available"
	KeyMaterialsRefined      = "materials.refined"

	// location_context: where the character stands relative to targets.
	KeyAtTarget      = "location_context.at_target"
	KeyAtResource    = "location_context.at_resource"
	KeyAtWorkshop    = "location_context.at_workshop"
	KeyResourceKnown = "location_context.resource_known"
	KeyWorkshopKnown = "location_context.workshop_known"

	// inventory: live inventory-derived facts.
	KeyHasTargetItem   = "inventory.has_target_item"
	KeyTargetItemCount = "inventory.target_item_count"
	KeySpaceAvailable  = "inventory.space_available"

	// equipment_status: the equipment upgrade state machine.
	KeyEquipmentStatus = "equipment_status.upgrade_status"

	// knowledge_state: what the agent knows about the world.
	KeyMapExplored     = "knowledge_state.map_explored"
	KeyLocationKnown   = "knowledge_state.location_known"
	KeyItemInfoKnown   = "knowledge_state.item_info_known"
	KeyXPSourcesKnown  = "knowledge_state.xp_sources_known"
	KeyKnowledgeAssessed = "knowledge_state.assessed"

	// skill_status: training progress for the active skill goal.
	KeySkillTrainable = "skill_status.trainable"
	KeySkillProgress  = "skill_status.progress"
)

// Values of the combat_context.status state machine.
const (
	CombatIdle      = "idle"
	CombatSearching = "searching"
	CombatReady     = "ready"
	CombatCompleted = "completed"
)

// Values of the materials.status state machine.
const (
	MaterialsUnknown    = "unknown"
	MaterialsPlanned    = "planned"
	MaterialsPartial    = "partial"
	MaterialsSufficient = "sufficient"
	MaterialsConsumed   = "consumed"
)

// Values of the equipment_status.upgrade_status state machine.
const (
	EquipmentUnknown  = "unknown"
	EquipmentAnalyzed = "analyzed"
	EquipmentEquipped = "equipped"
)
