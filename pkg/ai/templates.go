package ai

// RegisterBuiltinTemplates 注册内置行为树模板。
// 模板是共享原型，Register 时按单位克隆。
func RegisterBuiltinTemplates(m *Manager) {
	// assault 强攻：有目标就贴脸输出，否则巡逻
	m.RegisterTemplate("assault", &Selector{Children: []Node{
		&Sequence{Children: []Node{
			&FindTarget{},
			&MoveToTarget{},
			&Attack{},
		}},
		&Patrol{},
	}})

	// guard 护卫：先打够得着的敌人，打不了就回到队友身边
	m.RegisterTemplate("guard", &Selector{Children: []Node{
		&Sequence{Children: []Node{
			&FindTarget{},
			&MoveToTarget{},
			&Attack{},
		}},
		&Sequence{Children: []Node{
			&FindAlly{},
			&MoveToAlly{},
		}},
		&Patrol{},
	}})

	// skirmish 游击：交火中先侧移闪避再反击，脱战后巡逻
	m.RegisterTemplate("skirmish", &Selector{Children: []Node{
		&Sequence{Children: []Node{
			&KeyCondition{Key: KeyInCombat},
			&Dodge{},
			&FindTarget{},
			&MoveToTarget{},
			&Attack{},
		}},
		&Sequence{Children: []Node{
			&Inverter{Child: &KeyCondition{Key: KeyInCombat}},
			&Patrol{},
		}},
	}})

	// patrol 纯巡逻
	m.RegisterTemplate("patrol", &Patrol{})
}
